package exchange

import (
	"context"
	"time"
)

// MarketData 行情数据接口，内层实现允许失败，
// 由外层 PriceSource 适配器决定降级策略
type MarketData interface {
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*Kline, error)
}

// PriceSource 价格来源，永不向调用方返回错误，
// 取不到真实价格时降级为确定性的合成价格（见 FallbackPriceSource）
type PriceSource interface {
	FetchPrice(ctx context.Context, symbol string) float64
}

// Kline K线数据
type Kline struct {
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}
