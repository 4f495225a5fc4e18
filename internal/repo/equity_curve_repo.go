package repo

import (
	"context"
	"time"

	"github.com/go-orz/orz"
	"gorm.io/gorm"

	"github.com/dushixiang/tdi/internal/models"
)

func NewEquityCurveRepo(db *gorm.DB) *EquityCurveRepo {
	return &EquityCurveRepo{
		Repository: orz.NewRepository[models.EquityPoint, string](db),
	}
}

type EquityCurveRepo struct {
	orz.Repository[models.EquityPoint, string]
}

// FindLatest 获取最近一条资金曲线记录（按观测时间倒序）
func (r EquityCurveRepo) FindLatest(ctx context.Context) (m models.EquityPoint, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Order("ts DESC").
		First(&m).Error
	return m, err
}

// FindByRunOrdered 获取某次运行的全部资金曲线记录（按观测时间正序）
func (r EquityCurveRepo) FindByRunOrdered(ctx context.Context, runID string) ([]models.EquityPoint, error) {
	var points []models.EquityPoint
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("run_id = ?", runID).
		Order("ts ASC").
		Find(&points).Error
	return points, err
}

// FindByRunAndRange 获取某次运行在指定时间窗口内的资金曲线记录
func (r EquityCurveRepo) FindByRunAndRange(ctx context.Context, runID string, from, to time.Time) ([]models.EquityPoint, error) {
	var points []models.EquityPoint
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("run_id = ? AND ts >= ? AND ts < ?", runID, from, to).
		Order("ts ASC").
		Find(&points).Error
	return points, err
}

// CountByRun 统计某次运行的资金曲线记录数
func (r EquityCurveRepo) CountByRun(ctx context.Context, runID string) (int64, error) {
	var count int64
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("run_id = ?", runID).
		Count(&count).Error
	return count, err
}
