package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-orz/orz"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dushixiang/tdi/internal/models"
	"github.com/dushixiang/tdi/internal/repo"
)

// DashboardSummary 仪表盘摘要，全部来自存储层的只读查询
type DashboardSummary struct {
	RunID          string     `json:"run_id"`
	TradesCount    int64      `json:"trades_count"`
	LatestEquity   float64    `json:"latest_equity"`
	LatestDrawdown float64    `json:"latest_drawdown"`
	LastTs         *time.Time `json:"last_ts,omitempty"` // 最近一次 tick 的时间，空库时为空
}

// DashboardService 仪表盘只读服务
type DashboardService struct {
	logger *zap.Logger

	*orz.Service
	tradeRepo   *repo.TradeRepo
	equityRepo  *repo.EquityCurveRepo
	metricsRepo *repo.DailyMetricsRepo
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(db *gorm.DB, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		logger:      logger,
		Service:     orz.NewService(db),
		tradeRepo:   repo.NewTradeRepo(db),
		equityRepo:  repo.NewEquityCurveRepo(db),
		metricsRepo: repo.NewDailyMetricsRepo(db),
	}
}

// Summary 获取摘要：交易数、最近净值/回撤、最近 tick 时间；
// 空库时返回零值且不视为错误
func (s *DashboardService) Summary(ctx context.Context, runID string) (*DashboardSummary, error) {
	count, err := s.tradeRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count trades: %w", err)
	}

	summary := &DashboardSummary{
		RunID:       runID,
		TradesCount: count,
	}

	latest, err := s.equityRepo.FindLatest(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load latest equity point: %w", err)
		}
		return summary, nil
	}

	summary.LatestEquity = latest.Equity
	summary.LatestDrawdown = latest.Drawdown
	ts := latest.Ts
	summary.LastTs = &ts
	return summary, nil
}

// EquityCurve 获取某次运行的资金曲线（按时间正序）
func (s *DashboardService) EquityCurve(ctx context.Context, runID string) ([]models.EquityPoint, error) {
	return s.equityRepo.FindByRunOrdered(ctx, runID)
}

// RecentTrades 获取最近的交易记录
func (s *DashboardService) RecentTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	return s.tradeRepo.FindRecent(ctx, limit)
}

// DailyMetricsByRun 获取某次运行的每日指标
func (s *DashboardService) DailyMetricsByRun(ctx context.Context, runID string) ([]models.DailyMetrics, error) {
	return s.metricsRepo.FindByRun(ctx, runID)
}
