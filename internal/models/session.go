package models

import (
	"time"

	"gorm.io/datatypes"
)

// 会话状态
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusAbandoned = "abandoned"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Session 多轮对话会话。
// 四个累计字段只允许在追加消息的事务内以数据库原子自增方式更新，
// 绕过追加路径直接改消息表会破坏累计值与消息列表的一致性。
type Session struct {
	ID             string            `gorm:"primaryKey;size:64" json:"session_id"`
	UserID         string            `gorm:"index;size:64" json:"user_id"`
	ProjectID      string            `gorm:"index;size:64;not null" json:"project_id"`
	Provider       string            `gorm:"size:32" json:"provider"`
	Model          string            `gorm:"size:64" json:"model"`
	Status         string            `gorm:"index;size:16;not null;default:'active'" json:"status"` // active / completed / abandoned
	TotalTokens    int               `json:"total_tokens"`    // 累计token数
	TotalCost      float64           `json:"total_cost"`      // 累计费用（美元）
	TotalDuration  int64             `json:"total_duration"`  // 累计耗时(毫秒)
	MessageCount   int               `json:"message_count"`   // 消息条数
	Metadata       datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	StartedAt      time.Time         `gorm:"not null" json:"started_at"`
	EndedAt        *time.Time        `json:"ended_at,omitempty"`
	LastActivityAt time.Time         `gorm:"index;not null" json:"last_activity_at"`

	Messages []SessionMessage `gorm:"foreignKey:SessionID" json:"messages,omitempty"`
}

// TableName 指定表名
func (Session) TableName() string {
	return "sessions"
}

// SessionMessage 会话内的单条消息
type SessionMessage struct {
	ID               string    `gorm:"primaryKey;size:64" json:"id"`
	SessionID        string    `gorm:"index;size:64;not null" json:"session_id"`
	Role             string    `gorm:"size:16;not null" json:"role"` // user / assistant / system
	Content          string    `json:"content"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	Cost             float64   `json:"cost"`     // 本条消息费用（美元）
	Duration         int64     `json:"duration"` // 本条消息耗时(毫秒)
	CreatedAt        time.Time `gorm:"index;autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (SessionMessage) TableName() string {
	return "session_messages"
}

// Tokens 本条消息的token总数
func (m SessionMessage) Tokens() int {
	return m.PromptTokens + m.CompletionTokens
}
