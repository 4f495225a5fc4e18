package service

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dushixiang/tdi/internal/config"
	"github.com/dushixiang/tdi/internal/models"
	"github.com/dushixiang/tdi/internal/repo"
	"github.com/dushixiang/tdi/pkg/exchange"
)

// InitialEquity 纸面账户初始净值
const InitialEquity = 100_000.0

// DriftFunc 每个 tick 施加在净值上的扰动，要求零均值对称分布；
// 以注入方式提供，测试时可替换为确定性序列
type DriftFunc func() float64

// DefaultDrift [-25, +25) 区间的均匀扰动
func DefaultDrift() float64 {
	return (rand.Float64() - 0.5) * 50
}

// Notifier 运行事件通知，可选能力，未配置时为 nil
type Notifier interface {
	Notify(msg string)
}

// LoopState 循环的进程内状态，进程退出即丢弃；
// 峰值净值不落库，重启后回撤跟踪从当前净值重新开始
type LoopState struct {
	LastPrice  *float64 // 最近一次观测到的价格
	Equity     float64  // 当前净值，恒 >= 0
	PeakEquity float64  // 历史峰值净值，单调不减，恒 >= Equity
}

// PaperBot 纸面交易机器人：轮询价格 → 更新净值/回撤 → 落库 → 等待，
// 严格串行执行，LoopState 无需加锁
type PaperBot struct {
	conf   *config.Config
	logger *zap.Logger

	*orz.Service
	equityRepo  *repo.EquityCurveRepo
	metricsRepo *repo.DailyMetricsRepo

	priceSource exchange.PriceSource
	stats       DailyStatsProvider
	notifier    Notifier

	drift DriftFunc
	now   func() time.Time

	state     LoopState
	isRunning atomic.Bool
	ticks     atomic.Int64
}

// PaperBotOption 构造选项
type PaperBotOption func(*PaperBot)

// WithDrift 替换净值扰动来源
func WithDrift(drift DriftFunc) PaperBotOption {
	return func(b *PaperBot) {
		b.drift = drift
	}
}

// WithClock 替换时钟来源
func WithClock(now func() time.Time) PaperBotOption {
	return func(b *PaperBot) {
		b.now = now
	}
}

// NewPaperBot 创建纸面交易机器人，模式非 paper 时直接报错
func NewPaperBot(
	conf *config.Config,
	db *gorm.DB,
	priceSource exchange.PriceSource,
	stats DailyStatsProvider,
	notifier Notifier,
	logger *zap.Logger,
	options ...PaperBotOption,
) (*PaperBot, error) {
	if err := conf.EnsurePaperMode(); err != nil {
		return nil, err
	}

	bot := &PaperBot{
		conf:        conf,
		logger:      logger,
		Service:     orz.NewService(db),
		equityRepo:  repo.NewEquityCurveRepo(db),
		metricsRepo: repo.NewDailyMetricsRepo(db),
		priceSource: priceSource,
		stats:       stats,
		notifier:    notifier,
		drift:       DefaultDrift,
		now:         time.Now,
		state: LoopState{
			Equity:     InitialEquity,
			PeakEquity: InitialEquity,
		},
	}

	for _, option := range options {
		option(bot)
	}

	return bot, nil
}

// Run 驱动循环直到出现以下任一情况：停止开关文件出现、达到 maxTicks
// （maxTicks <= 0 表示不限）、context 取消、或存储写入失败。
// 每轮迭代开始前检查停止开关；tick 一旦开始总是完整执行完毕
func (b *PaperBot) Run(ctx context.Context, maxTicks int) error {
	if !b.isRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("paper bot is already running")
	}
	defer b.isRunning.Store(false)

	b.logger.Info("paper bot started",
		zap.String("run_id", b.conf.RunID),
		zap.String("symbol", b.conf.Symbol),
		zap.String("mode", b.conf.Mode),
		zap.Int("poll_interval_seconds", b.conf.PollIntervalSeconds),
		zap.Int("max_ticks", maxTicks))
	b.notify(fmt.Sprintf("TDI paper bot started, run %s (%s)", b.conf.RunID, b.conf.Symbol))

	tick := 0
	for {
		if b.shouldStop() {
			b.logger.Info("kill switch detected; stopping bot loop",
				zap.String("kill_switch_file", b.conf.KillSwitchFile),
				zap.Int("ticks", tick))
			b.notify(fmt.Sprintf("TDI paper bot stopped by kill switch after %d ticks", tick))
			return nil
		}

		select {
		case <-ctx.Done():
			b.logger.Info("bot loop stopped by context", zap.Int("ticks", tick))
			return ctx.Err()
		default:
		}

		price := b.priceSource.FetchPrice(ctx, b.conf.Symbol)
		tick++
		b.ticks.Store(int64(tick))

		if err := b.onTick(ctx, price, tick); err != nil {
			b.notify(fmt.Sprintf("TDI paper bot aborted at tick %d: %v", tick, err))
			return fmt.Errorf("tick %d failed: %w", tick, err)
		}

		if maxTicks > 0 && tick >= maxTicks {
			b.logger.Info("max ticks reached; stopping bot loop", zap.Int("ticks", tick))
			return nil
		}

		select {
		case <-ctx.Done():
			b.logger.Info("bot loop stopped by context", zap.Int("ticks", tick))
			return ctx.Err()
		case <-time.After(b.conf.PollInterval()):
		}
	}
}

// shouldStop 停止开关文件存在即停止
func (b *PaperBot) shouldStop() bool {
	_, err := os.Stat(b.conf.KillSwitchFile)
	return err == nil
}

// onTick 单次状态迁移：记录价格、扰动并截断净值、推进峰值、计算回撤，
// 然后写一条资金曲线记录并覆盖当日指标行。存储错误原样上抛，终止循环
func (b *PaperBot) onTick(ctx context.Context, price float64, tick int) error {
	now := b.now().UTC()

	b.state.LastPrice = &price
	b.state.Equity = math.Max(b.state.Equity+b.drift(), 0)
	b.state.PeakEquity = math.Max(b.state.PeakEquity, b.state.Equity)

	drawdown := 0.0
	if b.state.PeakEquity > 0 {
		drawdown = (b.state.Equity - b.state.PeakEquity) / b.state.PeakEquity
	}

	b.logger.Info("paper_tick",
		zap.String("run_id", b.conf.RunID),
		zap.Int("tick", tick),
		zap.String("symbol", b.conf.Symbol),
		zap.Float64("price", price),
		zap.Float64("equity", b.state.Equity),
		zap.Float64("drawdown", drawdown))

	point := &models.EquityPoint{
		ID:       ulid.Make().String(),
		Ts:       now,
		Equity:   b.state.Equity,
		Drawdown: drawdown,
		RunID:    b.conf.RunID,
	}
	if err := b.equityRepo.Create(ctx, point); err != nil {
		return fmt.Errorf("failed to insert equity point: %w", err)
	}

	// max_dd 取本 tick 回撤的绝对值，其余字段来自注入的指标提供者
	stats := b.stats.DailyStats(ctx, b.conf.RunID, now)
	metrics := &models.DailyMetrics{
		ID:          ulid.Make().String(),
		Date:        datatypes.Date(now),
		WinRate:     stats.WinRate,
		AvgR:        stats.AvgR,
		Expectancy:  stats.Expectancy,
		MaxDD:       math.Abs(drawdown),
		Sharpe:      stats.Sharpe,
		TradesCount: stats.TradesCount,
		RunID:       b.conf.RunID,
	}
	if err := b.metricsRepo.Upsert(ctx, metrics); err != nil {
		return fmt.Errorf("failed to upsert daily metrics: %w", err)
	}

	return nil
}

func (b *PaperBot) notify(msg string) {
	if b.notifier == nil {
		return
	}
	b.notifier.Notify(msg)
}

// IsRunning 循环是否在执行中
func (b *PaperBot) IsRunning() bool {
	return b.isRunning.Load()
}

// Ticks 已执行的 tick 数
func (b *PaperBot) Ticks() int64 {
	return b.ticks.Load()
}

// State 当前循环状态的副本
func (b *PaperBot) State() LoopState {
	return b.state
}
