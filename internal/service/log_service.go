package service

import (
	"context"
	"errors"
	"time"

	"github.com/dushixiang/lumen/internal/models"
	"github.com/dushixiang/lumen/internal/pubsub"
	"github.com/dushixiang/lumen/internal/repo"
	"github.com/dushixiang/lumen/internal/xe"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LogService 日志入库与查询服务
type LogService struct {
	logger *zap.Logger

	*orz.Service
	*repo.LLMLogRepo

	broadcaster pubsub.Broadcaster
}

// NewLogService 创建日志服务
func NewLogService(db *gorm.DB, broadcaster pubsub.Broadcaster, logger *zap.Logger) *LogService {
	return &LogService{
		logger:      logger,
		Service:     orz.NewService(db),
		LLMLogRepo:  repo.NewLLMLogRepo(db),
		broadcaster: broadcaster,
	}
}

// Ingest 持久化一条日志记录并广播 new-log 事件。
// 记录只增不改，重复ID视为客户端缺陷，直接报错不重试。
func (s *LogService) Ingest(ctx context.Context, log *models.LLMLog) error {
	if log.ID == "" {
		log.ID = ulid.Make().String()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	if err := s.LLMLogRepo.Create(ctx, log); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return xe.ErrDuplicateLogID
		}
		// 部分驱动不翻译唯一约束错误，按ID复查确认
		if _, findErr := s.LLMLogRepo.FindById(ctx, log.ID); findErr == nil {
			return xe.ErrDuplicateLogID
		}
		return err
	}

	// 广播失败不影响入库结果
	s.broadcaster.Publish(log.ProjectID, pubsub.Event{
		Type:      pubsub.EventNewLog,
		ProjectID: log.ProjectID,
		Payload:   log,
	})

	return nil
}

// GetByID 按ID查询单条日志
func (s *LogService) GetByID(ctx context.Context, id string) (models.LLMLog, error) {
	log, err := s.LLMLogRepo.FindById(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LLMLog{}, xe.ErrLogNotFound
		}
		return models.LLMLog{}, err
	}
	return log, nil
}

// List 按条件分页查询日志
func (s *LogService) List(ctx context.Context, q repo.LogQuery) ([]models.LLMLog, int64, error) {
	return s.LLMLogRepo.FindPaged(ctx, q)
}

// Delete 删除单条日志，仅用于维护场景
func (s *LogService) Delete(ctx context.Context, id string) error {
	_, err := s.LLMLogRepo.FindById(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return xe.ErrLogNotFound
		}
		return err
	}
	return s.LLMLogRepo.DeleteById(ctx, id)
}
