package repo

import (
	"context"
	"time"

	"github.com/dushixiang/lumen/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{
		Repository: orz.NewRepository[models.Session, string](db),
	}
}

type SessionRepo struct {
	orz.Repository[models.Session, string]
}

// SessionQuery 会话列表查询条件
type SessionQuery struct {
	ProjectID string
	UserID    string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Skip      int
}

// FindByIdWithMessages 查询会话及其全部消息，消息按时间升序
func (r SessionRepo) FindByIdWithMessages(ctx context.Context, id string) (models.Session, error) {
	var session models.Session
	err := r.GetDB(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&session).Error
	return session, err
}

// FindPaged 按条件分页查询会话
func (r SessionRepo) FindPaged(ctx context.Context, q SessionQuery) ([]models.Session, int64, error) {
	db := r.GetDB(ctx).Table(r.GetTableName())
	if q.ProjectID != "" {
		db = db.Where("project_id = ?", q.ProjectID)
	}
	if q.UserID != "" {
		db = db.Where("user_id = ?", q.UserID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.StartDate != nil {
		db = db.Where("started_at >= ?", *q.StartDate)
	}
	if q.EndDate != nil {
		db = db.Where("started_at <= ?", *q.EndDate)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []models.Session
	err := db.Order("last_activity_at DESC").
		Limit(q.Limit).
		Offset(q.Skip).
		Find(&sessions).Error
	return sessions, total, err
}

// AppendMessage 原子追加消息：插入消息行并以数据库自增表达式更新累计字段，
// 两步在同一事务内完成。自增在数据库侧执行，并发追加不会丢失更新。
// 这是累计字段唯一的写入路径。
func (r SessionRepo) AppendMessage(ctx context.Context, sessionID string, message *models.SessionMessage) error {
	return r.GetDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Session{}).
			Where("id = ?", sessionID).
			Updates(map[string]interface{}{
				"total_tokens":     gorm.Expr("total_tokens + ?", message.Tokens()),
				"total_cost":       gorm.Expr("total_cost + ?", message.Cost),
				"total_duration":   gorm.Expr("total_duration + ?", message.Duration),
				"message_count":    gorm.Expr("message_count + ?", 1),
				"last_activity_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Complete 结束会话：置为completed并记录结束时间
func (r SessionRepo) Complete(ctx context.Context, id string) (int64, error) {
	now := time.Now()
	result := r.GetDB(ctx).Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   models.SessionStatusCompleted,
			"ended_at": now,
		})
	return result.RowsAffected, result.Error
}

// DeleteWithMessages 删除会话及其全部消息
func (r SessionRepo) DeleteWithMessages(ctx context.Context, id string) (int64, error) {
	var affected int64
	err := r.GetDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&models.SessionMessage{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Session{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	return affected, err
}

// MarkAbandoned 将最后活跃时间早于截止时间的活跃会话标记为废弃
func (r SessionRepo) MarkAbandoned(ctx context.Context, before time.Time) (int64, error) {
	result := r.GetDB(ctx).Model(&models.Session{}).
		Where("status = ? AND last_activity_at < ?", models.SessionStatusActive, before).
		Update("status", models.SessionStatusAbandoned)
	return result.RowsAffected, result.Error
}
