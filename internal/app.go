package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dushixiang/tdi/internal/backtest"
	"github.com/dushixiang/tdi/internal/config"
	"github.com/dushixiang/tdi/internal/database"
	"github.com/dushixiang/tdi/internal/handler"
	"github.com/dushixiang/tdi/internal/service"
	"github.com/dushixiang/tdi/pkg/exchange"
	"github.com/dushixiang/tdi/pkg/nostd"
)

const shutdownTimeout = 10 * time.Second

// AppComponents 应用组件
type AppComponents struct {
	DashboardHandler *handler.DashboardHandler

	PaperBot         *service.PaperBot
	MetricsService   *service.MetricsService
	DashboardService *service.DashboardService

	PriceSource *exchange.FallbackPriceSource
	Notifier    service.Notifier
}

// RunOptions 运行参数
type RunOptions struct {
	EnvFile  string // 可选的 .env 文件路径，空则尝试当前目录
	MaxTicks int    // <= 0 表示不限
	WebOnly  bool   // 只启动仪表盘，不启动交易循环
}

// Run 启动纸面交易机器人与仪表盘，阻塞直到循环结束或收到退出信号
func Run(opts RunOptions) error {
	logger, conf, err := bootstrap(opts.EnvFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// 模式校验在任何存储或网络副作用之前
	if err := conf.EnsurePaperMode(); err != nil {
		return err
	}

	db, err := database.OpenFromURL(conf.DBURL)
	if err != nil {
		return err
	}

	components, err := InitializeApp(logger, db, conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}

	logger.Info("=================================================")
	logger.Info("TDI Paper Trading Bot Starting...")
	logger.Info("=================================================")
	logger.Info("run configured",
		zap.String("run_id", conf.RunID),
		zap.String("symbol", conf.Symbol),
		zap.String("mode", conf.Mode),
		zap.String("price_source", conf.PriceSource),
		zap.Int("dashboard_port", conf.DashboardPort))

	e, err := newEcho(logger)
	if err != nil {
		return err
	}
	if !opts.WebOnly {
		components.DashboardHandler.AttachBot(components.PaperBot, components.PriceSource)
	}
	components.DashboardHandler.RegisterRoutes(e)

	// 每日零点对前一日做一次指标汇总
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@daily", func() {
		day := time.Now().UTC().AddDate(0, 0, -1)
		if err := components.MetricsService.RollupDaily(context.Background(), conf.RunID, day); err != nil {
			logger.Error("daily metrics rollup failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule daily rollup: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", conf.DashboardPort)
		logger.Info("dashboard listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	botDone := make(chan error, 1)
	if !opts.WebOnly {
		go func() {
			botDone <- components.PaperBot.Run(ctx, opts.MaxTicks)
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		runErr = fmt.Errorf("dashboard server failed: %w", err)
	case err := <-botDone:
		// 停止开关或 maxTicks 触发的正常退出不算错误
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
		logger.Info("bot loop finished, shutting down")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown dashboard server", zap.Error(err))
	}

	return runErr
}

// Migrate 打开数据库并应用表结构后退出
func Migrate(envFile string) error {
	logger, conf, err := bootstrap(envFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	path, err := database.Resolve(conf.DBURL)
	if err != nil {
		return err
	}
	db, err := database.Open(path)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("database migrated", zap.String("path", path))
	return nil
}

// Backtest 拉取真实K线并执行一次确定性期望值回测
func Backtest(envFile string, atrPeriod int) error {
	logger, conf, err := bootstrap(envFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client := exchange.NewBinanceClient(conf.PriceSource == config.PriceSourceBinanceTestnet)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	klines, err := client.GetKlines(ctx, conf.Symbol, conf.Timeframe, conf.CandlesLimit)
	if err != nil {
		return fmt.Errorf("failed to load klines: %w", err)
	}

	candles := backtest.FromKlines(klines, atrPeriod)
	result := backtest.Run(candles, conf.RiskPerTrade)

	logger.Info("backtest finished",
		zap.String("symbol", conf.Symbol),
		zap.String("timeframe", conf.Timeframe),
		zap.Int("candles", len(candles)),
		zap.Int("trades", result.Trades),
		zap.Int("wins", result.Wins),
		zap.Int("losses", result.Losses),
		zap.Float64("expectancy", result.Expectancy))
	return nil
}

// bootstrap 加载 .env、初始化日志与配置
func bootstrap(envFile string) (*zap.Logger, *config.Config, error) {
	// .env 不存在不是错误，环境变量本身都有默认值
	if envFile != "" {
		_ = godotenv.Load(envFile)
	} else {
		_ = godotenv.Load()
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %v", err)
	}

	conf, err := config.FromEnv()
	if err != nil {
		return nil, nil, err
	}

	return logger, conf, nil
}

// newEcho 构造仪表盘HTTP服务
func newEcho(logger *zap.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))

	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		return nil, fmt.Errorf("failed to init custom validator: %v", err)
	}
	e.Validator = &customValidator

	return e, nil
}
