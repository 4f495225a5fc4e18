package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dushixiang/tdi/internal/config"
	"github.com/dushixiang/tdi/internal/database"
	"github.com/dushixiang/tdi/internal/repo"
	"go.uber.org/zap"
)

type stubPriceSource struct {
	price float64
}

func (s stubPriceSource) FetchPrice(context.Context, string) float64 {
	return s.price
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newBotConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Symbol:              "BTCUSDT",
		Timeframe:           "1h",
		RiskPerTrade:        0.005,
		DailyMaxDrawdown:    0.02,
		Mode:                config.ModePaper,
		DashboardPort:       8080,
		KillSwitchFile:      filepath.Join(t.TempDir(), "kill_switch"),
		PollIntervalSeconds: 0, // 测试里不等待
		RunID:               "test-run",
		PriceSource:         config.PriceSourceBinanceTestnet,
	}
}

// driftSeq 按给定序列依次返回扰动值，超出后循环
func driftSeq(values ...float64) DriftFunc {
	i := 0
	return func() float64 {
		v := values[i%len(values)]
		i++
		return v
	}
}

func newTestBot(t *testing.T, conf *config.Config, db *gorm.DB, options ...PaperBotOption) *PaperBot {
	t.Helper()

	bot, err := NewPaperBot(conf, db, stubPriceSource{price: 50_000}, PlaceholderStats{}, nil, zap.NewNop(), options...)
	require.NoError(t, err)
	return bot
}

func TestDefaultDriftRange(t *testing.T) {
	for i := 0; i < 1_000; i++ {
		d := DefaultDrift()
		assert.GreaterOrEqual(t, d, -25.0)
		assert.Less(t, d, 25.0)
	}
}

func TestPaperBotRejectsNonPaperMode(t *testing.T) {
	conf := newBotConfig(t)
	conf.Mode = "live"

	_, err := NewPaperBot(conf, newTestDB(t), stubPriceSource{}, PlaceholderStats{}, nil, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paper")
}

func TestPaperBotMaxTicks(t *testing.T) {
	conf := newBotConfig(t)
	db := newTestDB(t)
	bot := newTestBot(t, conf, db, WithDrift(driftSeq(10)))

	err := bot.Run(context.Background(), 3)
	require.NoError(t, err)

	assert.EqualValues(t, 3, bot.Ticks())
	assert.False(t, bot.IsRunning())

	state := bot.State()
	assert.Equal(t, InitialEquity+30, state.Equity)
	assert.Equal(t, InitialEquity+30, state.PeakEquity)
	require.NotNil(t, state.LastPrice)
	assert.Equal(t, 50_000.0, *state.LastPrice)

	// 每个 tick 恰好落一条资金曲线记录
	count, err := repo.NewEquityCurveRepo(db).CountByRun(context.Background(), conf.RunID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestPaperBotClampAndDrawdown(t *testing.T) {
	conf := newBotConfig(t)
	db := newTestDB(t)
	bot := newTestBot(t, conf, db, WithDrift(driftSeq(100, -200, -1e9)))

	err := bot.Run(context.Background(), 3)
	require.NoError(t, err)

	// 净值被截断到 0，回撤相对峰值为 -1
	state := bot.State()
	assert.Equal(t, 0.0, state.Equity)
	assert.Equal(t, InitialEquity+100, state.PeakEquity)

	points, err := repo.NewEquityCurveRepo(db).FindByRunOrdered(context.Background(), conf.RunID)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, 0.0, points[0].Drawdown)
	assert.InDelta(t, -200.0/(InitialEquity+100), points[1].Drawdown, 1e-12)
	assert.Equal(t, -1.0, points[2].Drawdown)

	// 回撤恒 <= 0，峰值单调不减
	for _, p := range points {
		assert.LessOrEqual(t, p.Drawdown, 0.0)
	}
}

func TestPaperBotKillSwitch(t *testing.T) {
	conf := newBotConfig(t)
	db := newTestDB(t)
	bot := newTestBot(t, conf, db)

	require.NoError(t, os.WriteFile(conf.KillSwitchFile, nil, 0o644))

	err := bot.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.EqualValues(t, 0, bot.Ticks())
	count, err := repo.NewEquityCurveRepo(db).CountByRun(context.Background(), conf.RunID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestPaperBotContextCanceled(t *testing.T) {
	conf := newBotConfig(t)
	bot := newTestBot(t, conf, newTestDB(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bot.Run(ctx, 10)
	require.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, bot.Ticks())
}

func TestPaperBotRejectsConcurrentRun(t *testing.T) {
	conf := newBotConfig(t)
	conf.PollIntervalSeconds = 1
	db := newTestDB(t)
	bot := newTestBot(t, conf, db, WithDrift(driftSeq(1)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx, 0) }()

	require.Eventually(t, bot.IsRunning, 2*time.Second, 10*time.Millisecond)

	err := bot.Run(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestPaperBotWritesDailyMetrics(t *testing.T) {
	conf := newBotConfig(t)
	db := newTestDB(t)

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	bot := newTestBot(t, conf, db,
		WithDrift(driftSeq(-50)),
		WithClock(func() time.Time { return fixed }),
	)

	require.NoError(t, bot.Run(context.Background(), 1))

	rows, err := repo.NewDailyMetricsRepo(db).FindByRun(context.Background(), conf.RunID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// 占位指标全零，max_dd 取当前回撤的绝对值
	assert.InDelta(t, 50.0/InitialEquity, rows[0].MaxDD, 1e-12)
	assert.Zero(t, rows[0].WinRate)
	assert.Zero(t, rows[0].TradesCount)
}
