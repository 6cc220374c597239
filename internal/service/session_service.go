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

// SessionService 会话生命周期服务
type SessionService struct {
	logger *zap.Logger

	*orz.Service
	*repo.SessionRepo

	broadcaster pubsub.Broadcaster
}

// NewSessionService 创建会话服务
func NewSessionService(db *gorm.DB, broadcaster pubsub.Broadcaster, logger *zap.Logger) *SessionService {
	return &SessionService{
		logger:      logger,
		Service:     orz.NewService(db),
		SessionRepo: repo.NewSessionRepo(db),
		broadcaster: broadcaster,
	}
}

// Create 创建会话，ID由调用方提供
func (s *SessionService) Create(ctx context.Context, session *models.Session) error {
	now := time.Now()
	if session.StartedAt.IsZero() {
		session.StartedAt = now
	}
	if session.LastActivityAt.IsZero() {
		session.LastActivityAt = now
	}
	if session.Status == "" {
		session.Status = models.SessionStatusActive
	}

	if err := s.SessionRepo.Create(ctx, session); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return xe.ErrDuplicateSession
		}
		if _, findErr := s.SessionRepo.FindById(ctx, session.ID); findErr == nil {
			return xe.ErrDuplicateSession
		}
		return err
	}

	s.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.String("project_id", session.ProjectID))
	return nil
}

// AppendMessage 向会话追加一条消息并更新累计值，返回更新后的会话。
// 追加与累计更新在同一事务内原子完成，见 SessionRepo.AppendMessage。
func (s *SessionService) AppendMessage(ctx context.Context, sessionID string, message *models.SessionMessage) (models.Session, error) {
	if message.ID == "" {
		message.ID = ulid.Make().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	message.SessionID = sessionID

	if err := s.SessionRepo.AppendMessage(ctx, sessionID, message); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, xe.ErrSessionNotFound
		}
		return models.Session{}, err
	}

	session, err := s.SessionRepo.FindByIdWithMessages(ctx, sessionID)
	if err != nil {
		return models.Session{}, err
	}

	s.broadcaster.Publish(session.ProjectID, pubsub.Event{
		Type:      pubsub.EventSessionUpdated,
		ProjectID: session.ProjectID,
		Payload:   session,
	})

	return session, nil
}

// GetByID 查询会话及其全部消息
func (s *SessionService) GetByID(ctx context.Context, id string) (models.Session, error) {
	session, err := s.SessionRepo.FindByIdWithMessages(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, xe.ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}

// List 按条件分页查询会话
func (s *SessionService) List(ctx context.Context, q repo.SessionQuery) ([]models.Session, int64, error) {
	return s.SessionRepo.FindPaged(ctx, q)
}

// Complete 结束会话
func (s *SessionService) Complete(ctx context.Context, id string) (models.Session, error) {
	affected, err := s.SessionRepo.Complete(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	if affected == 0 {
		return models.Session{}, xe.ErrSessionNotFound
	}

	session, err := s.SessionRepo.FindById(ctx, id)
	if err != nil {
		return models.Session{}, err
	}

	s.broadcaster.Publish(session.ProjectID, pubsub.Event{
		Type:      pubsub.EventSessionUpdated,
		ProjectID: session.ProjectID,
		Payload:   session,
	})

	return session, nil
}

// Delete 删除会话及其消息，无级联副作用
func (s *SessionService) Delete(ctx context.Context, id string) error {
	affected, err := s.SessionRepo.DeleteWithMessages(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return xe.ErrSessionNotFound
	}
	return nil
}
