package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"

	"github.com/dushixiang/tdi/internal/config"
	"github.com/dushixiang/tdi/internal/service"
	"github.com/dushixiang/tdi/internal/xe"
)

// DegradationCounter 价格来源降级计数（可选能力，纯 web 模式下为空）
type DegradationCounter interface {
	Degradations() int64
}

// DashboardHandler 只读仪表盘HTTP处理器
type DashboardHandler struct {
	conf             *config.Config
	dashboardService *service.DashboardService
	logger           *zap.Logger

	// bot 与 degradations 仅在 run 模式下存在
	bot          *service.PaperBot
	degradations DegradationCounter
}

// NewDashboardHandler 创建仪表盘处理器
func NewDashboardHandler(
	conf *config.Config,
	dashboardService *service.DashboardService,
	logger *zap.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		conf:             conf,
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// AttachBot 挂载循环状态来源（run 模式）
func (h *DashboardHandler) AttachBot(bot *service.PaperBot, degradations DegradationCounter) {
	h.bot = bot
	h.degradations = degradations
}

// Healthz 存活探针
// GET /healthz
func (h *DashboardHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"mode":   h.conf.Mode,
	})
}

// Index 摘要页面
// GET /
func (h *DashboardHandler) Index(c echo.Context) error {
	ctx := c.Request().Context()

	summary, err := h.dashboardService.Summary(ctx, h.conf.RunID)
	if err != nil {
		return err
	}

	lastTs := "—"
	if summary.LastTs != nil {
		lastTs = summary.LastTs.UTC().Format("2006-01-02 15:04:05")
	}

	tmpl := fasttemplate.New(dashboardTemplate, "{{", "}}")
	page := tmpl.ExecuteString(map[string]interface{}{
		"run_id":   summary.RunID,
		"trades":   fmt.Sprintf("%d", summary.TradesCount),
		"equity":   fmt.Sprintf("%.2f", summary.LatestEquity),
		"drawdown": fmt.Sprintf("%.4f", summary.LatestDrawdown),
		"last_ts":  lastTs,
	})

	return c.HTML(http.StatusOK, page)
}

// GetSummary 获取摘要
// GET /api/summary
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	ctx := c.Request().Context()

	summary, err := h.dashboardService.Summary(ctx, h.conf.RunID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// GetStatus 获取循环状态
// GET /api/status
func (h *DashboardHandler) GetStatus(c echo.Context) error {
	status := map[string]interface{}{
		"mode":    h.conf.Mode,
		"symbol":  h.conf.Symbol,
		"run_id":  h.conf.RunID,
		"running": false,
	}
	if h.bot != nil {
		status["running"] = h.bot.IsRunning()
		status["ticks"] = h.bot.Ticks()
	}
	if h.degradations != nil {
		status["price_degradations"] = h.degradations.Degradations()
	}
	return c.JSON(http.StatusOK, status)
}

// GetEquityCurve 获取资金曲线数据
// GET /api/equity-curve
func (h *DashboardHandler) GetEquityCurve(c echo.Context) error {
	ctx := c.Request().Context()

	points, err := h.dashboardService.EquityCurve(ctx, h.conf.RunID)
	if err != nil {
		return err
	}

	data := make([]map[string]interface{}, 0, len(points))
	for _, p := range points {
		data = append(data, map[string]interface{}{
			"timestamp": p.Ts.Unix(),
			"ts":        p.Ts,
			"equity":    p.Equity,
			"dd":        p.Drawdown,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(data),
		"data":  data,
	})
}

// GetTrades 获取交易历史
// GET /api/trades?limit=20
func (h *DashboardHandler) GetTrades(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 20
	if l := c.QueryParam("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			return xe.ErrInvalidParams
		}
		limit = parsed
	}
	if limit < 1 || limit > 500 {
		limit = 20
	}

	trades, err := h.dashboardService.RecentTrades(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":  len(trades),
		"trades": trades,
	})
}

// GetDailyMetrics 获取每日指标
// GET /api/metrics/daily
func (h *DashboardHandler) GetDailyMetrics(c echo.Context) error {
	ctx := c.Request().Context()

	rows, err := h.dashboardService.DailyMetricsByRun(ctx, h.conf.RunID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   len(rows),
		"metrics": rows,
	})
}

// RegisterRoutes 注册路由
func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.GET("/", h.Index)

	api := e.Group("/api")
	api.GET("/summary", h.GetSummary)
	api.GET("/status", h.GetStatus)
	api.GET("/equity-curve", h.GetEquityCurve)
	api.GET("/trades", h.GetTrades)
	api.GET("/metrics/daily", h.GetDailyMetrics)
}

const dashboardTemplate = `<html>
<head>
    <title>TDI Trading Dashboard</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            margin: 2rem;
            background-color: #0f172a;
            color: #f8fafc;
        }
        .card {
            background-color: #1e293b;
            padding: 1.5rem;
            border-radius: 12px;
            margin-bottom: 1rem;
        }
        .metrics {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 1rem;
        }
        h1 {
            margin-bottom: 1rem;
        }
        span.label {
            display: block;
            font-size: 0.85rem;
            text-transform: uppercase;
            letter-spacing: 0.08em;
            color: #94a3b8;
        }
        span.value {
            font-size: 1.8rem;
            font-weight: bold;
            color: #38bdf8;
        }
    </style>
</head>
<body>
    <h1>Paper Trading Dashboard</h1>
    <div class="metrics">
        <div class="card">
            <span class="label">Run ID</span>
            <span class="value">{{run_id}}</span>
        </div>
        <div class="card">
            <span class="label">Trades</span>
            <span class="value">{{trades}}</span>
        </div>
        <div class="card">
            <span class="label">Latest Equity</span>
            <span class="value">{{equity}}</span>
        </div>
        <div class="card">
            <span class="label">Drawdown</span>
            <span class="value">{{drawdown}}</span>
        </div>
        <div class="card">
            <span class="label">Last Tick</span>
            <span class="value">{{last_ts}}</span>
        </div>
    </div>
</body>
</html>
`
