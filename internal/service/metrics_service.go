package service

import (
	"context"

	"github.com/dushixiang/lumen/internal/repo"
	"github.com/dushixiang/lumen/internal/xe"
	"github.com/go-orz/orz"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 时间序列粒度
const (
	IntervalHour = repo.IntervalHour
	IntervalDay  = repo.IntervalDay
)

// maxTimeSeriesBuckets 时间序列单次返回的桶数上限
const maxTimeSeriesBuckets = 500

// MetricsService 指标聚合服务，只读
type MetricsService struct {
	logger *zap.Logger

	*orz.Service
	*repo.LLMLogRepo
}

// NewMetricsService 创建指标服务
func NewMetricsService(db *gorm.DB, logger *zap.Logger) *MetricsService {
	return &MetricsService{
		logger:     logger,
		Service:    orz.NewService(db),
		LLMLogRepo: repo.NewLLMLogRepo(db),
	}
}

// Summary 汇总统计。无匹配记录时返回全零结果而不是错误。
func (s *MetricsService) Summary(ctx context.Context, f repo.MetricsFilter) (repo.SummaryRow, error) {
	return s.LLMLogRepo.Summary(ctx, f)
}

// ByProvider 按供应商/模型分组统计，费用从高到低
func (s *MetricsService) ByProvider(ctx context.Context, f repo.MetricsFilter) ([]repo.ProviderModelRow, error) {
	rows, err := s.LLMLogRepo.GroupByProviderModel(ctx, f)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repo.ProviderModelRow{}
	}
	return rows, nil
}

// TimeSeries 按小时或天分桶统计，桶升序，最多返回 maxTimeSeriesBuckets 个
func (s *MetricsService) TimeSeries(ctx context.Context, f repo.MetricsFilter, interval string) ([]repo.TimeSeriesRow, error) {
	switch interval {
	case IntervalHour, IntervalDay:
	case "":
		interval = IntervalDay
	default:
		return nil, xe.ErrInvalidInterval
	}

	rows, err := s.LLMLogRepo.TimeSeries(ctx, f, interval, maxTimeSeriesBuckets)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repo.TimeSeriesRow{}
	}
	return rows, nil
}
