package llmkit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dushixiang/lumen/pkg/pricing"
	"github.com/oklog/ulid/v2"
	"github.com/openai/openai-go"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Client 给任意 Provider 附加计时、计费和日志上报。
// 调用方看到的返回值和错误与直接调用 Provider 完全一致，
// 日志上报是旁路行为，失败不影响调用方。
type Client struct {
	provider Provider
	reporter *Reporter
	logger   *zap.Logger

	projectID   string
	environment string
	metadata    map[string]interface{}

	mu             sync.Mutex
	unpricedWarned map[string]struct{}
}

// ClientOption 客户端可选配置
type ClientOption func(c *Client)

// WithEnvironment 设置环境标签，如 production/development
func WithEnvironment(environment string) ClientOption {
	return func(c *Client) {
		c.environment = environment
	}
}

// WithMetadata 设置附加到每条日志的元数据
func WithMetadata(metadata map[string]interface{}) ClientOption {
	return func(c *Client) {
		c.metadata = metadata
	}
}

// WithLogger 设置调试日志
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient 创建监控客户端
func NewClient(provider Provider, reporter *Reporter, projectID string, options ...ClientOption) *Client {
	c := &Client{
		provider:       provider,
		reporter:       reporter,
		logger:         zap.NewNop(),
		projectID:      projectID,
		unpricedWarned: make(map[string]struct{}),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Invoke 执行一次LLM调用并上报日志。
// 成功时从供应商响应提取用量；失败时以输入长度估算提示词token数，
// 原始错误原样返回给调用方。耗时统计严格覆盖底层调用的完整时间。
func (c *Client) Invoke(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := c.provider.Invoke(ctx, req)
	duration := time.Since(start).Milliseconds()

	record := LogRecord{
		ID:          ulid.Make().String(),
		ProjectID:   c.projectID,
		Environment: c.environment,
		Provider:    c.provider.Name(),
		Model:       c.provider.Model(),
		Duration:    duration,
		Metadata:    c.metadata,
		Timestamp:   time.Now(),
	}

	if err != nil {
		record.Status = "error"
		c.fillError(&record, err)
		// 供应商没有返回用量，根据输入长度估算
		record.PromptTokens = estimateTokens(req.System + req.Prompt)
		record.CompletionTokens = 0
		record.TotalTokens = record.PromptTokens
	} else {
		record.Status = "success"
		record.StatusCode = http.StatusOK
		record.PromptTokens = resp.Usage.PromptTokens
		record.CompletionTokens = resp.Usage.CompletionTokens
		record.TotalTokens = resp.Usage.TotalTokens
	}

	record.Cost = c.calculateCost(record.PromptTokens, record.CompletionTokens)

	c.reporter.Submit(record)

	return resp, err
}

// calculateCost 计算费用，未收录的模型记0并告警一次
func (c *Client) calculateCost(promptTokens, completionTokens int) float64 {
	cost, priced := pricing.Calculate(c.provider.Name(), c.provider.Model(), pricing.Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	})
	if !priced {
		key := c.provider.Name() + "/" + c.provider.Model()
		c.mu.Lock()
		_, warned := c.unpricedWarned[key]
		if !warned {
			c.unpricedWarned[key] = struct{}{}
		}
		c.mu.Unlock()
		if !warned {
			c.logger.Warn("model not in pricing table, cost recorded as 0",
				zap.String("provider", c.provider.Name()),
				zap.String("model", c.provider.Model()))
		}
	}
	return cost
}

// fillError 从供应商错误中提取状态码和错误分类
func (c *Client) fillError(record *LogRecord, err error) {
	record.ErrorMessage = err.Error()
	record.StatusCode = http.StatusInternalServerError

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		record.StatusCode = openaiErr.StatusCode
		record.ErrorType = openaiErr.Type
		record.ErrorCode = openaiErr.Code
		return
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		record.StatusCode = geminiErr.Code
		record.ErrorType = geminiErr.Status
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		record.ErrorType = "timeout"
		record.StatusCode = http.StatusGatewayTimeout
	}
}
