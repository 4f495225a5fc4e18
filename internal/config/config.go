package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

const (
	// DefaultDBURL 默认数据库地址，固定解析为本地 tdi_bot.db 文件
	DefaultDBURL = "sqlite:///./tdi_bot.db"

	// ModePaper 纸面交易模式，当前唯一支持的运行模式
	ModePaper = "paper"

	// PriceSourceBinanceTestnet 默认价格来源，Binance期货测试网
	PriceSourceBinanceTestnet = "binance-testnet"
)

// Config 机器人配置，进程启动时从环境变量构造一次，
// 之后按引用传入各组件，任何组件不得再直接读取环境变量
type Config struct {
	Symbol              string  `json:"symbol" validate:"required"`               // 交易对，如 BTCUSDT
	Timeframe           string  `json:"timeframe" validate:"required"`            // K线周期标签，如 1h
	RiskPerTrade        float64 `json:"risk_per_trade" validate:"gt=0,lte=1"`     // 单笔风险比例
	DailyMaxDrawdown    float64 `json:"daily_max_drawdown" validate:"gt=0,lte=1"` // 日内最大回撤比例
	Mode                string  `json:"mode" validate:"required"`                 // 运行模式，必须为 paper
	DBURL               string  `json:"db_url" validate:"required"`               // 存储地址
	DashboardPort       int     `json:"dashboard_port" validate:"gt=0,lte=65535"` // 仪表盘端口
	KillSwitchFile      string  `json:"kill_switch_file" validate:"required"`     // 停止开关文件路径
	PollIntervalSeconds int     `json:"poll_interval_seconds" validate:"gte=1"`   // 轮询间隔（秒）
	RunID               string  `json:"run_id" validate:"required"`               // 本次运行标识
	PriceSource         string  `json:"price_source" validate:"required"`         // 价格来源标签
	CandlesLimit        int     `json:"candles_limit" validate:"gte=1,lte=1500"`  // 回测K线数量

	Telegram TelegramConf `json:"telegram"`
}

// TelegramConf Telegram 通知配置，token 为空时禁用
type TelegramConf struct {
	Token  string `json:"token"`
	ChatID string `json:"chat_id"`
}

// Enabled 是否启用 Telegram 通知
func (t TelegramConf) Enabled() bool {
	return t.Token != "" && t.ChatID != ""
}

var validate = validator.New()

// FromEnv 从环境变量构造配置，数值类环境变量非法时直接报错，不做静默兜底
func FromEnv() (*Config, error) {
	riskPerTrade, err := envFloat("RISK_PER_TRADE", 0.005)
	if err != nil {
		return nil, err
	}
	dailyMaxDrawdown, err := envFloat("DAILY_MAX_DRAWDOWN", 0.02)
	if err != nil {
		return nil, err
	}
	dashboardPort, err := envInt("DASHBOARD_PORT", 8080)
	if err != nil {
		return nil, err
	}
	pollInterval, err := envInt("POLL_INTERVAL_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	candlesLimit, err := envInt("CANDLES_LIMIT", 500)
	if err != nil {
		return nil, err
	}

	conf := &Config{
		Symbol:              envString("SYMBOL", "BTCUSDT"),
		Timeframe:           envString("TIMEFRAME", "1h"),
		RiskPerTrade:        riskPerTrade,
		DailyMaxDrawdown:    dailyMaxDrawdown,
		Mode:                envString("MODE", ModePaper),
		DBURL:               envString("DB_URL", DefaultDBURL),
		DashboardPort:       dashboardPort,
		KillSwitchFile:      envString("KILL_SWITCH_FILE", filepath.Join(os.TempDir(), "tdi_kill_switch")),
		PollIntervalSeconds: pollInterval,
		RunID:               envString("RUN_ID", defaultRunID()),
		PriceSource:         envString("PRICE_SOURCE", PriceSourceBinanceTestnet),
		CandlesLimit:        candlesLimit,
		Telegram: TelegramConf{
			Token:  envString("TELEGRAM_TOKEN", ""),
			ChatID: envString("TELEGRAM_CHAT_ID", ""),
		},
	}

	if err := validate.Struct(conf); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return conf, nil
}

// EnsurePaperMode 校验运行模式，任何非 paper 的取值都是致命配置错误
func (c *Config) EnsurePaperMode() error {
	if c.Mode != ModePaper {
		return fmt.Errorf("config: mode must remain %q, got %q", ModePaper, c.Mode)
	}
	return nil
}

// PollInterval 轮询间隔
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func defaultRunID() string {
	return time.Now().UTC().Format("20060102150405")
}

func envString(name, fallback string) string {
	if raw, ok := os.LookupEnv(name); ok && raw != "" {
		return raw
	}
	return fallback
}

func envFloat(name string, fallback float64) (float64, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return fallback, nil
	}
	value, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be a float", name)
	}
	return value, nil
}

func envInt(name string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return fallback, nil
	}
	value, err := cast.ToIntE(raw)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer", name)
	}
	return value, nil
}
