package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dushixiang/tdi/internal/models"
	"github.com/dushixiang/tdi/internal/repo"
)

// DailyStats 每日聚合指标的值对象。
// MaxDD 由调用方决定：tick 循环写入当前回撤的绝对值，
// 每日汇总写入当日最深回撤的绝对值
type DailyStats struct {
	WinRate     float64 `json:"win_rate"`
	AvgR        float64 `json:"avg_r"`
	Expectancy  float64 `json:"expectancy"`
	MaxDD       float64 `json:"max_dd"`
	Sharpe      float64 `json:"sharpe"`
	TradesCount int     `json:"trades_count"`
}

// DailyStatsProvider 每日指标来源。tick 循环默认注入占位实现（全零），
// 真实统计由 MetricsService 计算并通过每日汇总任务落库
type DailyStatsProvider interface {
	DailyStats(ctx context.Context, runID string, day time.Time) DailyStats
}

// PlaceholderStats 占位指标来源，恒为零值，
// 等待真正的策略/回测组件接入后替换
type PlaceholderStats struct{}

var _ DailyStatsProvider = PlaceholderStats{}

// DailyStats 恒为零值
func (PlaceholderStats) DailyStats(context.Context, string, time.Time) DailyStats {
	return DailyStats{}
}

// MetricsService 每日指标统计服务：从已落库的交易与资金曲线
// 计算胜率、平均R、期望值、最大回撤与夏普比率
type MetricsService struct {
	logger *zap.Logger

	*orz.Service
	tradeRepo   *repo.TradeRepo
	equityRepo  *repo.EquityCurveRepo
	metricsRepo *repo.DailyMetricsRepo
}

// NewMetricsService 创建指标统计服务
func NewMetricsService(db *gorm.DB, logger *zap.Logger) *MetricsService {
	return &MetricsService{
		logger:      logger,
		Service:     orz.NewService(db),
		tradeRepo:   repo.NewTradeRepo(db),
		equityRepo:  repo.NewEquityCurveRepo(db),
		metricsRepo: repo.NewDailyMetricsRepo(db),
	}
}

var _ DailyStatsProvider = (*MetricsService)(nil)

// DailyStats 实现 DailyStatsProvider，计算失败时降级为零值并记录日志
func (s *MetricsService) DailyStats(ctx context.Context, runID string, day time.Time) DailyStats {
	stats, err := s.ComputeDailyStats(ctx, runID, day)
	if err != nil {
		s.logger.Warn("failed to compute daily stats, falling back to zeros",
			zap.String("run_id", runID), zap.Error(err))
		return DailyStats{}
	}
	return stats
}

// ComputeDailyStats 计算某次运行在指定日期（UTC自然日）的全部指标
func (s *MetricsService) ComputeDailyStats(ctx context.Context, runID string, day time.Time) (DailyStats, error) {
	trades, points, err := s.loadDay(ctx, runID, day)
	if err != nil {
		return DailyStats{}, err
	}
	return computeDailyStats(trades, points), nil
}

// RollupDaily 计算并覆盖写入某次运行当日的指标行；
// 当日既无交易也无资金曲线记录时跳过
func (s *MetricsService) RollupDaily(ctx context.Context, runID string, day time.Time) error {
	trades, points, err := s.loadDay(ctx, runID, day)
	if err != nil {
		return err
	}
	if len(trades) == 0 && len(points) == 0 {
		s.logger.Debug("no data for daily rollup, skipping",
			zap.String("run_id", runID), zap.Time("day", day))
		return nil
	}

	stats := computeDailyStats(trades, points)

	metrics := &models.DailyMetrics{
		ID:          ulid.Make().String(),
		Date:        datatypes.Date(day.UTC()),
		WinRate:     stats.WinRate,
		AvgR:        stats.AvgR,
		Expectancy:  stats.Expectancy,
		MaxDD:       stats.MaxDD,
		Sharpe:      stats.Sharpe,
		TradesCount: stats.TradesCount,
		RunID:       runID,
	}
	if err := s.metricsRepo.Upsert(ctx, metrics); err != nil {
		return fmt.Errorf("failed to upsert daily metrics: %w", err)
	}

	s.logger.Info("daily metrics rolled up",
		zap.String("run_id", runID),
		zap.Time("day", day),
		zap.Float64("win_rate", stats.WinRate),
		zap.Float64("max_dd", stats.MaxDD),
		zap.Int("trades_count", stats.TradesCount))
	return nil
}

func (s *MetricsService) loadDay(ctx context.Context, runID string, day time.Time) ([]models.Trade, []models.EquityPoint, error) {
	from, to := dayRange(day)

	trades, err := s.tradeRepo.FindByRunAndRange(ctx, runID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load trades: %w", err)
	}
	points, err := s.equityRepo.FindByRunAndRange(ctx, runID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load equity curve: %w", err)
	}
	return trades, points, nil
}

func computeDailyStats(trades []models.Trade, points []models.EquityPoint) DailyStats {
	stats := DailyStats{
		TradesCount: len(trades),
	}

	// 胜率与R倍数只统计已平仓的交易
	var wins, closed int
	var rValues, winR, lossR []float64
	for _, t := range trades {
		if t.Pnl == nil {
			continue
		}
		closed++
		if *t.Pnl > 0 {
			wins++
		}
		if t.RMultiple == nil {
			continue
		}
		rValues = append(rValues, *t.RMultiple)
		if *t.RMultiple > 0 {
			winR = append(winR, *t.RMultiple)
		} else if *t.RMultiple < 0 {
			lossR = append(lossR, *t.RMultiple)
		}
	}
	if closed > 0 {
		stats.WinRate = float64(wins) / float64(closed)
		// 期望值（R单位）= 胜率 * 平均盈利R + 败率 * 平均亏损R
		stats.Expectancy = stats.WinRate*mean(winR) + (1-stats.WinRate)*mean(lossR)
	}
	stats.AvgR = mean(rValues)

	// 当日最深回撤
	for _, p := range points {
		if dd := math.Abs(p.Drawdown); dd > stats.MaxDD {
			stats.MaxDD = dd
		}
	}

	stats.Sharpe = sharpeRatio(points)

	return stats
}

// sharpeRatio 以相邻资金曲线点之间的收益率序列计算夏普比率，
// 假设无风险利率为 0；样本不足或波动为 0 时返回 0
func sharpeRatio(points []models.EquityPoint) float64 {
	if len(points) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		if points[i-1].Equity > 0 {
			returns = append(returns, (points[i].Equity-points[i-1].Equity)/points[i-1].Equity)
		}
	}
	if len(returns) == 0 {
		return 0
	}

	avg := mean(returns)

	variance := 0.0
	for _, r := range returns {
		variance += math.Pow(r-avg, 2)
	}
	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)

	if stdDev == 0 {
		return 0
	}
	return avg / stdDev
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// dayRange 某时刻所在UTC自然日的 [起, 止) 区间
func dayRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.Add(24 * time.Hour)
}
