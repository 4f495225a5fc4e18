package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const fetchTimeout = 10 * time.Second

// FallbackPriceSource 外层价格适配器：包装一个可失败的 MarketData，
// 任何网络/解析/超时错误都被吸收，降级为确定性的合成价格。
// 这是有意为之的数据降级，循环不能因为取不到报价而停下。
type FallbackPriceSource struct {
	market MarketData
	logger *zap.Logger

	degradations atomic.Int64
	now          func() time.Time
}

// NewFallbackPriceSource 创建价格适配器
func NewFallbackPriceSource(market MarketData, logger *zap.Logger) *FallbackPriceSource {
	return &FallbackPriceSource{
		market: market,
		logger: logger,
		now:    time.Now,
	}
}

var _ PriceSource = (*FallbackPriceSource)(nil)

// FetchPrice 获取当前价格，永不失败
func (s *FallbackPriceSource) FetchPrice(ctx context.Context, symbol string) float64 {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	price, err := s.market.GetCurrentPrice(ctx, strings.ToUpper(symbol))
	if err == nil && price > 0 {
		s.logger.Debug("fetched price",
			zap.String("symbol", symbol),
			zap.Float64("price", price))
		return price
	}
	if err == nil {
		err = fmt.Errorf("non-positive price %v", price)
	}

	fallback := SyntheticPrice(s.now())
	s.degradations.Add(1)
	s.logger.Warn("price_fetch_fallback",
		zap.String("symbol", symbol),
		zap.Error(err),
		zap.Float64("fallback_price", fallback))
	return fallback
}

// Degradations 自进程启动以来降级为合成价格的次数
func (s *FallbackPriceSource) Degradations() int64 {
	return s.degradations.Load()
}

// SyntheticPrice 合成价格：50000 加上秒级时间戳对 1000 的余数
func SyntheticPrice(t time.Time) float64 {
	return 50_000 + float64(t.Unix()%1_000)
}
