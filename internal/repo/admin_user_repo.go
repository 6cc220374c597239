package repo

import (
	"context"
	"time"

	"github.com/dushixiang/lumen/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewAdminUserRepo(db *gorm.DB) *AdminUserRepo {
	return &AdminUserRepo{
		Repository: orz.NewRepository[models.AdminUser, string](db),
	}
}

type AdminUserRepo struct {
	orz.Repository[models.AdminUser, string]
}

// FindByUsername 按用户名查找账号
func (r AdminUserRepo) FindByUsername(ctx context.Context, username string) (models.AdminUser, error) {
	var user models.AdminUser
	err := r.GetDB(ctx).Where("username = ?", username).First(&user).Error
	return user, err
}

// UpdateLastLogin 记录最后登录时间和IP
func (r AdminUserRepo) UpdateLastLogin(ctx context.Context, id, ip string) error {
	return r.GetDB(ctx).Model(&models.AdminUser{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login_at": time.Now(),
			"last_login_ip": ip,
		}).Error
}

// UpdatePassword 更新密码哈希
func (r AdminUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.GetDB(ctx).Model(&models.AdminUser{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}
