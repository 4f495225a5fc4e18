package repo

import (
	"context"

	"github.com/go-orz/orz"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dushixiang/tdi/internal/models"
)

func NewDailyMetricsRepo(db *gorm.DB) *DailyMetricsRepo {
	return &DailyMetricsRepo{
		Repository: orz.NewRepository[models.DailyMetrics, string](db),
	}
}

type DailyMetricsRepo struct {
	orz.Repository[models.DailyMetrics, string]
}

// Upsert 按 (date, run_id) 写入每日指标，已存在时整行覆盖全部指标字段
func (r DailyMetricsRepo) Upsert(ctx context.Context, m *models.DailyMetrics) error {
	db := r.GetDB(ctx)
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "run_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"win_rate", "avg_r", "expectancy", "max_dd", "sharpe", "trades_count",
		}),
	}).Create(m).Error
}

// FindByDateAndRun 获取某次运行某一天的指标记录
func (r DailyMetricsRepo) FindByDateAndRun(ctx context.Context, date datatypes.Date, runID string) (m models.DailyMetrics, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("date = ? AND run_id = ?", date, runID).
		First(&m).Error
	return m, err
}

// FindByRun 获取某次运行的全部每日指标（按日期正序）
func (r DailyMetricsRepo) FindByRun(ctx context.Context, runID string) ([]models.DailyMetrics, error) {
	var rows []models.DailyMetrics
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("run_id = ?", runID).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}
