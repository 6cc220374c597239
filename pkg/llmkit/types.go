package llmkit

import (
	"context"
	"time"
)

// Request 一次LLM调用请求
type Request struct {
	System string // 系统提示词，可为空
	Prompt string // 用户输入
}

// Usage 供应商返回的token用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response LLM调用结果
type Response struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// Provider LLM供应商调用能力。
// 各供应商独立实现，计时、计费和日志上报由 Client 统一包装。
type Provider interface {
	// Name 供应商标识，作为定价查询键，如 openai / gemini
	Name() string
	// Model 模型名称
	Model() string
	// Invoke 执行一次调用，返回供应商自身的错误，不做包装
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// LogRecord 上报给服务端的日志记录，字段与 POST /api/logs 一致
type LogRecord struct {
	ID               string                 `json:"id"`
	ProjectID        string                 `json:"project_id"`
	Environment      string                 `json:"environment,omitempty"`
	Provider         string                 `json:"provider"`
	Model            string                 `json:"model"`
	PromptTokens     int                    `json:"prompt_tokens"`
	CompletionTokens int                    `json:"completion_tokens"`
	TotalTokens      int                    `json:"total_tokens"`
	Duration         int64                  `json:"duration"`
	Status           string                 `json:"status"`
	StatusCode       int                    `json:"status_code"`
	ErrorMessage     string                 `json:"error_message,omitempty"`
	ErrorType        string                 `json:"error_type,omitempty"`
	ErrorCode        string                 `json:"error_code,omitempty"`
	Cost             float64                `json:"cost"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	Timestamp        time.Time              `json:"timestamp"`
}

// estimateTokens 无法取得供应商用量时的估算：每4个字符算1个token
func estimateTokens(input string) int {
	return len(input) / 4
}
