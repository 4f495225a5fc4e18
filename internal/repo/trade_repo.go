package repo

import (
	"context"
	"time"

	"github.com/go-orz/orz"
	"gorm.io/gorm"

	"github.com/dushixiang/tdi/internal/models"
)

func NewTradeRepo(db *gorm.DB) *TradeRepo {
	return &TradeRepo{
		Repository: orz.NewRepository[models.Trade, string](db),
	}
}

type TradeRepo struct {
	orz.Repository[models.Trade, string]
}

// Count 统计全部交易记录数
func (r TradeRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).Count(&count).Error
	return count, err
}

// FindRecent 获取最近的交易记录
func (r TradeRepo) FindRecent(ctx context.Context, limit int) ([]models.Trade, error) {
	var trades []models.Trade
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("ts DESC").
		Limit(limit).
		Find(&trades).Error
	return trades, err
}

// FindByRunAndRange 获取某次运行在指定时间窗口内的交易记录
func (r TradeRepo) FindByRunAndRange(ctx context.Context, runID string, from, to time.Time) ([]models.Trade, error) {
	var trades []models.Trade
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("run_id = ? AND ts >= ? AND ts < ?", runID, from, to).
		Order("ts ASC").
		Find(&trades).Error
	return trades, err
}
