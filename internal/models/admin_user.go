package models

import "time"

// 管理员角色
const (
	AdminRoleAdmin  = "admin"
	AdminRoleViewer = "viewer"
)

// AdminUser 看板管理员账号，只保护维护类接口，与业务数据无关联
type AdminUser struct {
	ID           string     `gorm:"primaryKey;size:26" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"` // 密码哈希，不返回给前端
	DisplayName  string     `gorm:"size:100" json:"display_name"`
	Role         string     `gorm:"size:20;not null;default:'admin'" json:"role"` // admin / viewer
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	LastLoginIP  string     `gorm:"size:45" json:"last_login_ip"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (AdminUser) TableName() string {
	return "admin_users"
}
