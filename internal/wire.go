//go:build wireinject
// +build wireinject

package internal

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dushixiang/tdi/internal/config"
	"github.com/dushixiang/tdi/internal/handler"
	"github.com/dushixiang/tdi/internal/service"
	"github.com/dushixiang/tdi/pkg/exchange"
)

var (
	handlerSet = wire.NewSet(
		handler.NewDashboardHandler,
	)

	botSet = wire.NewSet(
		provideBinanceClient,
		providePriceSource,
		wire.Bind(new(exchange.PriceSource), new(*exchange.FallbackPriceSource)),
		provideStatsProvider,
		provideNotifier,
		providePaperBot,
		service.NewMetricsService,
		service.NewDashboardService,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		botSet,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}
