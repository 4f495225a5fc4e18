package backtest

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"github.com/dushixiang/tdi/pkg/exchange"
)

// Candle 回测输入，只需要收盘价与ATR
type Candle struct {
	Close float64
	ATR   float64
}

// Result 期望值回测结果
type Result struct {
	Trades     int     `json:"trades"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Expectancy float64 `json:"expectancy"`
}

// Run 对K线序列执行确定性的期望值回测。
// 无内部状态、无随机性，ATR 为 0 的K线直接跳过；
// riskPerTrade 为单笔风险上限（如 0.005）
func Run(candles []Candle, riskPerTrade float64) Result {
	balance := 1.0
	var wins, losses int

	for _, c := range candles {
		if c.ATR == 0 {
			continue
		}
		risk := math.Min(riskPerTrade, c.ATR/math.Max(c.Close, 1))
		move := (math.Mod(c.Close, 2) - 0.5) * risk * 10
		balance *= 1 + move
		if move > 0 {
			wins++
		} else if move < 0 {
			losses++
		}
	}

	trades := wins + losses
	result := Result{
		Trades: trades,
		Wins:   wins,
		Losses: losses,
	}
	if trades > 0 {
		result.Expectancy = (balance - 1.0) / float64(trades)
	}
	return result
}

// FromKlines 从交易所K线构造回测蜡烛，ATR 用 talib 按 period 计算；
// 序列不足一个周期时 ATR 全为 0，由 Run 跳过
func FromKlines(klines []*exchange.Kline, period int) []Candle {
	if len(klines) == 0 {
		return nil
	}

	high := make([]float64, len(klines))
	low := make([]float64, len(klines))
	closes := make([]float64, len(klines))
	for i, k := range klines {
		high[i] = k.High
		low[i] = k.Low
		closes[i] = k.Close
	}

	atr := make([]float64, len(klines))
	if len(klines) > period {
		atr = talib.Atr(high, low, closes, period)
	}

	candles := make([]Candle, len(klines))
	for i := range klines {
		candles[i] = Candle{Close: closes[i], ATR: atr[i]}
	}
	return candles
}
