package models

import (
	"time"

	"gorm.io/datatypes"
)

// DailyMetrics 每日聚合指标，(date, run_id) 唯一，重复写入为整行覆盖而非累加
type DailyMetrics struct {
	ID          string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Date        datatypes.Date `gorm:"column:date;not null;uniqueIndex:uq_metrics_daily_date_run,priority:1" json:"date"`
	WinRate     float64        `gorm:"column:win_rate;type:decimal(10,4);not null" json:"win_rate"`     // 胜率
	AvgR        float64        `gorm:"column:avg_r;type:decimal(10,4);not null" json:"avg_r"`           // 平均R倍数
	Expectancy  float64        `gorm:"type:decimal(10,6);not null" json:"expectancy"`                   // 期望值
	MaxDD       float64        `gorm:"column:max_dd;type:decimal(10,6);not null" json:"max_dd"`         // 最大回撤幅度（取绝对值）
	Sharpe      float64        `gorm:"type:decimal(10,4);not null" json:"sharpe"`                       // 夏普比率
	TradesCount int            `gorm:"column:trades_count;not null" json:"trades_count"`                // 交易笔数
	RunID       string         `gorm:"column:run_id;type:varchar(26);not null;uniqueIndex:uq_metrics_daily_date_run,priority:2" json:"run_id"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (DailyMetrics) TableName() string {
	return "metrics_daily"
}
