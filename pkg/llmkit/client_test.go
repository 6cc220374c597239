package llmkit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider 测试用供应商,返回预设的响应或错误
type fakeProvider struct {
	name  string
	model string
	resp  *Response
	err   error
	delay time.Duration
}

func (p *fakeProvider) Name() string  { return p.name }
func (p *fakeProvider) Model() string { return p.model }

func (p *fakeProvider) Invoke(ctx context.Context, req Request) (*Response, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.resp, nil
}

// recordSink 收集上报到测试服务端的日志
type recordSink struct {
	mu      sync.Mutex
	records []LogRecord
}

func (s *recordSink) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var record LogRecord
	if err := json.Unmarshal(body, &record); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
}

func (s *recordSink) all() []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LogRecord(nil), s.records...)
}

func newTestReporter(t *testing.T) (*Reporter, *recordSink) {
	t.Helper()
	sink := &recordSink{}
	server := httptest.NewServer(http.HandlerFunc(sink.handler))
	t.Cleanup(server.Close)
	return NewReporter(server.URL), sink
}

func TestClientInvokeSuccess(t *testing.T) {
	reporter, sink := newTestReporter(t)

	provider := &fakeProvider{
		name:  "openai",
		model: "gpt-4o",
		resp: &Response{
			Text:  "hello",
			Usage: Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
		},
	}
	client := NewClient(provider, reporter, "proj-a",
		WithEnvironment("test"),
		WithMetadata(map[string]interface{}{"run": "unit"}))

	resp, err := client.Invoke(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)

	reporter.Close()

	records := sink.all()
	require.Len(t, records, 1)
	record := records[0]
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "proj-a", record.ProjectID)
	assert.Equal(t, "test", record.Environment)
	assert.Equal(t, "openai", record.Provider)
	assert.Equal(t, "gpt-4o", record.Model)
	assert.Equal(t, "success", record.Status)
	assert.Equal(t, http.StatusOK, record.StatusCode)
	assert.Equal(t, 100, record.PromptTokens)
	assert.Equal(t, 50, record.CompletionTokens)
	assert.Equal(t, 150, record.TotalTokens)
	// 100/1e6*2.5 + 50/1e6*10
	assert.InDelta(t, 0.00075, record.Cost, 1e-9)
	assert.Equal(t, "unit", record.Metadata["run"])
}

func TestClientInvokeError(t *testing.T) {
	reporter, sink := newTestReporter(t)

	providerErr := errors.New("rate limited")
	provider := &fakeProvider{name: "openai", model: "gpt-4o", err: providerErr}
	client := NewClient(provider, reporter, "proj-a")

	resp, err := client.Invoke(context.Background(), Request{System: "be brief", Prompt: "hello world"})
	assert.Nil(t, resp)
	// 原始错误原样返回
	assert.ErrorIs(t, err, providerErr)

	reporter.Close()

	records := sink.all()
	require.Len(t, records, 1, "失败调用也必须上报且只报一条")
	record := records[0]
	assert.Equal(t, "error", record.Status)
	assert.Equal(t, http.StatusInternalServerError, record.StatusCode)
	assert.Equal(t, "rate limited", record.ErrorMessage)
	// len("be brief"+"hello world")/4 = 19/4
	assert.Equal(t, 4, record.PromptTokens)
	assert.Equal(t, 0, record.CompletionTokens)
	assert.Equal(t, 4, record.TotalTokens)
}

func TestClientInvokeTimeout(t *testing.T) {
	reporter, sink := newTestReporter(t)

	provider := &fakeProvider{name: "openai", model: "gpt-4o", delay: time.Second}
	client := NewClient(provider, reporter, "proj-a")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Invoke(ctx, Request{Prompt: "hi"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	reporter.Close()

	records := sink.all()
	require.Len(t, records, 1)
	assert.Equal(t, "error", records[0].Status)
	assert.Equal(t, "timeout", records[0].ErrorType)
	assert.Equal(t, http.StatusGatewayTimeout, records[0].StatusCode)
}

func TestClientUnpricedModelCostZero(t *testing.T) {
	reporter, sink := newTestReporter(t)

	provider := &fakeProvider{
		name:  "openai",
		model: "gpt-next",
		resp:  &Response{Text: "ok", Usage: Usage{PromptTokens: 1000, CompletionTokens: 1000, TotalTokens: 2000}},
	}
	client := NewClient(provider, reporter, "proj-a")

	for i := 0; i < 3; i++ {
		_, err := client.Invoke(context.Background(), Request{Prompt: "hi"})
		require.NoError(t, err)
	}

	reporter.Close()

	records := sink.all()
	require.Len(t, records, 3)
	for _, record := range records {
		assert.Equal(t, 0.0, record.Cost)
		assert.Equal(t, "success", record.Status)
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.Equal(t, 0, estimateTokens("abc"))
	assert.Equal(t, 1, estimateTokens("abcd"))
	assert.Equal(t, 25, estimateTokens(string(make([]byte, 100))))
}
