package repo

import (
	"context"
	"time"

	"github.com/dushixiang/lumen/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewLLMLogRepo(db *gorm.DB) *LLMLogRepo {
	return &LLMLogRepo{
		Repository: orz.NewRepository[models.LLMLog, string](db),
	}
}

type LLMLogRepo struct {
	orz.Repository[models.LLMLog, string]
}

// LogQuery 日志列表查询条件
type LogQuery struct {
	ProjectID string
	Provider  string
	Model     string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Skip      int
}

// 时间序列粒度
const (
	IntervalHour = "hour"
	IntervalDay  = "day"
)

// MetricsFilter 聚合查询过滤条件
type MetricsFilter struct {
	ProjectID string
	StartDate *time.Time
	EndDate   *time.Time
}

// SummaryRow 汇总聚合结果
type SummaryRow struct {
	TotalCalls      int64   `json:"total_calls"`
	SuccessfulCalls int64   `json:"successful_calls"`
	FailedCalls     int64   `json:"failed_calls"`
	TotalTokens     int64   `json:"total_tokens"`
	TotalCost       float64 `json:"total_cost"`
	AvgDuration     float64 `json:"avg_duration"`
	MinDuration     int64   `json:"min_duration"`
	MaxDuration     int64   `json:"max_duration"`
}

// ProviderModelRow 按供应商/模型分组的聚合结果
type ProviderModelRow struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Calls       int64   `json:"calls"`
	TotalTokens int64   `json:"total_tokens"`
	TotalCost   float64 `json:"total_cost"`
	AvgDuration float64 `json:"avg_duration"`
}

// TimeSeriesRow 按时间桶分组的聚合结果
type TimeSeriesRow struct {
	Bucket      string  `json:"bucket"`
	Calls       int64   `json:"calls"`
	TotalTokens int64   `json:"total_tokens"`
	TotalCost   float64 `json:"total_cost"`
}

// FindPaged 按条件分页查询日志
func (r LLMLogRepo) FindPaged(ctx context.Context, q LogQuery) ([]models.LLMLog, int64, error) {
	db := r.GetDB(ctx).Table(r.GetTableName())
	db = applyLogQuery(db, q)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.LLMLog
	err := db.Order("created_at DESC").
		Limit(q.Limit).
		Offset(q.Skip).
		Find(&logs).Error
	return logs, total, err
}

// Summary 汇总统计：调用数、成功/失败数、token总量、费用总和、耗时统计。
// 无匹配记录时所有字段为0。
func (r LLMLogRepo) Summary(ctx context.Context, f MetricsFilter) (SummaryRow, error) {
	var row SummaryRow
	db := applyMetricsFilter(r.GetDB(ctx).Table(r.GetTableName()), f)
	err := db.Select(
		"COUNT(*) AS total_calls, " +
			"COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0) AS successful_calls, " +
			"COALESCE(SUM(CASE WHEN status != 'success' THEN 1 ELSE 0 END), 0) AS failed_calls, " +
			"COALESCE(SUM(total_tokens), 0) AS total_tokens, " +
			"COALESCE(SUM(cost), 0) AS total_cost, " +
			"COALESCE(AVG(duration), 0) AS avg_duration, " +
			"COALESCE(MIN(duration), 0) AS min_duration, " +
			"COALESCE(MAX(duration), 0) AS max_duration").
		Scan(&row).Error
	return row, err
}

// GroupByProviderModel 按 (provider, model) 分组统计，费用从高到低排序
func (r LLMLogRepo) GroupByProviderModel(ctx context.Context, f MetricsFilter) ([]ProviderModelRow, error) {
	var rows []ProviderModelRow
	db := applyMetricsFilter(r.GetDB(ctx).Table(r.GetTableName()), f)
	err := db.Select(
		"provider, model, " +
			"COUNT(*) AS calls, " +
			"COALESCE(SUM(total_tokens), 0) AS total_tokens, " +
			"COALESCE(SUM(cost), 0) AS total_cost, " +
			"COALESCE(AVG(duration), 0) AS avg_duration").
		Group("provider, model").
		Order("total_cost DESC").
		Scan(&rows).Error
	return rows, err
}

// TimeSeries 按时间桶分组统计，桶按升序排列。
// interval 取 IntervalHour 或 IntervalDay，由调用方先行校验。
func (r LLMLogRepo) TimeSeries(ctx context.Context, f MetricsFilter, interval string, maxBuckets int) ([]TimeSeriesRow, error) {
	var rows []TimeSeriesRow
	db := applyMetricsFilter(r.GetDB(ctx).Table(r.GetTableName()), f)
	err := db.Select(
		bucketExpr(r.GetDB(ctx).Dialector.Name(), interval) + " AS bucket, " +
			"COUNT(*) AS calls, " +
			"COALESCE(SUM(total_tokens), 0) AS total_tokens, " +
			"COALESCE(SUM(cost), 0) AS total_cost").
		Group("bucket").
		Order("bucket ASC").
		Limit(maxBuckets).
		Scan(&rows).Error
	return rows, err
}

// bucketExpr 按数据库方言生成时间桶截断表达式，
// 输出统一为 "2006-01-02" 或 "2006-01-02T15:00" 形式的字符串
func bucketExpr(dialect, interval string) string {
	hourly := interval == IntervalHour
	switch dialect {
	case "postgres":
		if hourly {
			return `to_char(created_at, 'YYYY-MM-DD"T"HH24:00')`
		}
		return "to_char(created_at, 'YYYY-MM-DD')"
	case "mysql":
		if hourly {
			return "DATE_FORMAT(created_at, '%Y-%m-%dT%H:00')"
		}
		return "DATE_FORMAT(created_at, '%Y-%m-%d')"
	default: // sqlite
		if hourly {
			return "strftime('%Y-%m-%dT%H:00', created_at)"
		}
		return "strftime('%Y-%m-%d', created_at)"
	}
}

// SumCostSince 统计某项目指定时间之后的费用总和，用于费用告警
func (r LLMLogRepo) SumCostSince(ctx context.Context, projectID string, since time.Time) (float64, error) {
	var total float64
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("project_id = ? AND created_at >= ?", projectID, since).
		Select("COALESCE(SUM(cost), 0)").
		Scan(&total).Error
	return total, err
}

// DistinctProjects 列出有日志记录的项目
func (r LLMLogRepo) DistinctProjects(ctx context.Context) ([]string, error) {
	var projects []string
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Distinct("project_id").
		Order("project_id").
		Pluck("project_id", &projects).Error
	return projects, err
}

func applyLogQuery(db *gorm.DB, q LogQuery) *gorm.DB {
	if q.ProjectID != "" {
		db = db.Where("project_id = ?", q.ProjectID)
	}
	if q.Provider != "" {
		db = db.Where("provider = ?", q.Provider)
	}
	if q.Model != "" {
		db = db.Where("model = ?", q.Model)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.StartDate != nil {
		db = db.Where("created_at >= ?", *q.StartDate)
	}
	if q.EndDate != nil {
		db = db.Where("created_at <= ?", *q.EndDate)
	}
	return db
}

func applyMetricsFilter(db *gorm.DB, f MetricsFilter) *gorm.DB {
	if f.ProjectID != "" {
		db = db.Where("project_id = ?", f.ProjectID)
	}
	if f.StartDate != nil {
		db = db.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		db = db.Where("created_at <= ?", *f.EndDate)
	}
	return db
}
