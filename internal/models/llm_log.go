package models

import (
	"time"

	"gorm.io/datatypes"
)

// 日志状态
const (
	LogStatusSuccess = "success"
	LogStatusError   = "error"
)

// LLMLog LLM调用日志记录，一次调用一条，写入后不可变更
type LLMLog struct {
	ID               string            `gorm:"primaryKey;size:64" json:"id"`
	ProjectID        string            `gorm:"index;size:64;not null" json:"project_id"` // 所属项目
	Environment      string            `gorm:"size:32" json:"environment"`               // 环境标签，如 production/development
	Provider         string            `gorm:"index;size:32;not null" json:"provider"`   // LLM供应商，定价查询键
	Model            string            `gorm:"index;size:64;not null" json:"model"`      // 模型名称，定价查询键
	PromptTokens     int               `json:"prompt_tokens"`                            // 提示词token数
	CompletionTokens int               `json:"completion_tokens"`                        // 完成token数
	TotalTokens      int               `json:"total_tokens"`                             // 客户端上报的总token数，不做一致性校验
	Duration         int64             `json:"duration"`                                 // 请求耗时(毫秒)
	Status           string            `gorm:"index;size:16;not null" json:"status"`     // success / error
	StatusCode       int               `json:"status_code"`                              // HTTP状态码
	ErrorMessage     string            `json:"error_message,omitempty"`
	ErrorType        string            `gorm:"size:64" json:"error_type,omitempty"`
	ErrorCode        string            `gorm:"size:64" json:"error_code,omitempty"`
	Cost             float64           `json:"cost"`                                  // 费用（美元），未收录模型为0
	Metadata         datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`   // 自由键值元数据，不假设任何键存在
	CreatedAt        time.Time         `gorm:"index;autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (LLMLog) TableName() string {
	return "llm_logs"
}

// CostValue 返回已存储的费用字段
func (l LLMLog) CostValue() float64 {
	return l.Cost
}
