package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dushixiang/tdi/pkg/exchange"
)

func TestRunDeterministic(t *testing.T) {
	candles := make([]Candle, 50)
	for i := range candles {
		candles[i] = Candle{
			Close: 100 + float64(i),
			ATR:   2 + float64(i%3),
		}
	}

	first := Run(candles, 0.005)
	second := Run(candles, 0.005)

	// 无随机性，两次结果必须一致
	assert.Equal(t, first, second)

	assert.Greater(t, first.Trades, 0)
	assert.Equal(t, first.Trades, first.Wins+first.Losses)
	// 收盘价整数时 mod 2 交替为 0/1，胜负各半
	assert.Equal(t, 25, first.Wins)
	assert.Equal(t, 25, first.Losses)
	assert.False(t, math.IsNaN(first.Expectancy))
}

func TestRunSkipsZeroATR(t *testing.T) {
	candles := []Candle{
		{Close: 101, ATR: 0},
		{Close: 103, ATR: 0},
	}

	result := Run(candles, 0.005)
	assert.Zero(t, result.Trades)
	assert.Zero(t, result.Expectancy)
}

func TestRunEmpty(t *testing.T) {
	assert.Equal(t, Result{}, Run(nil, 0.005))
}

func TestRunRiskCap(t *testing.T) {
	// ATR 远大于收盘价时风险被限制在上限，单笔涨跌不超过 riskCap*10*0.5
	candles := []Candle{{Close: 1, ATR: 1_000}}
	result := Run(candles, 0.005)

	require.Equal(t, 1, result.Trades)
	assert.LessOrEqual(t, math.Abs(result.Expectancy), 0.005*10*0.5+1e-12)
}

func TestFromKlines(t *testing.T) {
	assert.Nil(t, FromKlines(nil, 14))

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	klines := make([]*exchange.Kline, 30)
	for i := range klines {
		price := 100 + float64(i)
		klines[i] = &exchange.Kline{
			OpenTime:  base.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price + 2,
			Low:       price - 2,
			Close:     price + 1,
			CloseTime: base.Add(time.Duration(i+1) * time.Hour),
		}
	}

	candles := FromKlines(klines, 14)
	require.Len(t, candles, 30)

	// 暖机期内 ATR 为 0，之后为正
	assert.Zero(t, candles[0].ATR)
	assert.Greater(t, candles[len(candles)-1].ATR, 0.0)
	assert.Equal(t, 101.0, candles[0].Close)
}

func TestFromKlinesShortSeries(t *testing.T) {
	klines := []*exchange.Kline{
		{Close: 100, High: 101, Low: 99},
		{Close: 101, High: 102, Low: 100},
	}

	candles := FromKlines(klines, 14)
	require.Len(t, candles, 2)
	for _, c := range candles {
		assert.Zero(t, c.ATR)
	}
}
