package llmkit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// reportTimeout 单条日志上报的固定超时，超时即放弃不重试
const reportTimeout = 30 * time.Second

// Reporter 异步日志上报器：无界发送队列 + 单个发送协程。
// 每条日志一次POST，固定超时，失败不重试直接丢弃，只记debug日志。
// 上报永远不阻塞、不影响调用方的主流程。
type Reporter struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger

	mu     sync.Mutex
	queue  []LogRecord
	wake   chan struct{}
	closed bool
	done   chan struct{}
}

// NewReporter 创建日志上报器，endpoint 为服务端地址，如 http://localhost:8080
func NewReporter(endpoint string, options ...ReporterOption) *Reporter {
	r := &Reporter{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: reportTimeout},
		logger:   zap.NewNop(),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, option := range options {
		option(r)
	}

	go r.loop()
	return r
}

// ReporterOption 上报器可选配置
type ReporterOption func(r *Reporter)

// WithReporterLogger 设置调试日志
func WithReporterLogger(logger *zap.Logger) ReporterOption {
	return func(r *Reporter) {
		r.logger = logger
	}
}

// WithHTTPClient 替换HTTP客户端，测试用
func WithHTTPClient(client *http.Client) ReporterOption {
	return func(r *Reporter) {
		r.client = client
	}
}

// Submit 入队一条日志，立即返回。关闭后提交的日志直接丢弃。
func (r *Reporter) Submit(record LogRecord) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, record)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Close 停止接收新日志，发送完队列中剩余的日志后返回
func (r *Reporter) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	<-r.done
}

func (r *Reporter) loop() {
	defer close(r.done)
	for {
		r.mu.Lock()
		batch := r.queue
		r.queue = nil
		closed := r.closed
		r.mu.Unlock()

		for _, record := range batch {
			r.send(record)
		}

		if closed {
			// 关闭后再清一次队列，Submit 与 Close 之间可能有残留
			r.mu.Lock()
			rest := r.queue
			r.queue = nil
			r.mu.Unlock()
			for _, record := range rest {
				r.send(record)
			}
			return
		}

		if len(batch) == 0 {
			<-r.wake
		}
	}
}

// send 发送单条日志，任何失败都只记debug日志后丢弃
func (r *Reporter) send(record LogRecord) {
	body, err := json.Marshal(record)
	if err != nil {
		r.logger.Debug("failed to marshal log record", zap.Error(err))
		return
	}

	resp, err := r.client.Post(r.endpoint+"/api/logs", "application/json", bytes.NewReader(body))
	if err != nil {
		r.logger.Debug("log report dropped", zap.String("id", record.ID), zap.Error(err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		r.logger.Debug("log report rejected",
			zap.String("id", record.ID),
			zap.Int("status_code", resp.StatusCode))
	}
}
