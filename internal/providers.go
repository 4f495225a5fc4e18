package internal

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dushixiang/tdi/internal/config"
	"github.com/dushixiang/tdi/internal/service"
	"github.com/dushixiang/tdi/internal/telegram"
	"github.com/dushixiang/tdi/pkg/exchange"
)

const telegramHTTPTimeout = 10 * time.Second

// provideBinanceClient provides Binance market data client
func provideBinanceClient(conf *config.Config, logger *zap.Logger) *exchange.BinanceClient {
	testnet := conf.PriceSource == config.PriceSourceBinanceTestnet
	client := exchange.NewBinanceClient(testnet)

	logger.Info("Binance client initialized",
		zap.String("price_source", conf.PriceSource),
		zap.Bool("testnet", testnet),
	)
	return client
}

// providePriceSource provides the never-failing price source
func providePriceSource(client *exchange.BinanceClient, logger *zap.Logger) *exchange.FallbackPriceSource {
	return exchange.NewFallbackPriceSource(client, logger)
}

// provideStatsProvider provides the per-tick daily stats source.
// tick 循环写占位统计，真实统计由每日汇总任务负责
func provideStatsProvider() service.DailyStatsProvider {
	return service.PlaceholderStats{}
}

// provideNotifier provides telegram notifier, nil when not configured
func provideNotifier(logger *zap.Logger, conf *config.Config) service.Notifier {
	if !conf.Telegram.Enabled() {
		return nil
	}

	httpClient := &http.Client{Timeout: telegramHTTPTimeout}

	tg, err := telegram.NewTelegram(logger, telegram.Settings{
		Token:  conf.Telegram.Token,
		ChatID: conf.Telegram.ChatID,
		Client: httpClient,
	})
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}

	return tg
}

// providePaperBot provides the paper trading bot
func providePaperBot(
	conf *config.Config,
	db *gorm.DB,
	priceSource exchange.PriceSource,
	stats service.DailyStatsProvider,
	notifier service.Notifier,
	logger *zap.Logger,
) (*service.PaperBot, error) {
	return service.NewPaperBot(conf, db, priceSource, stats, notifier, logger)
}
