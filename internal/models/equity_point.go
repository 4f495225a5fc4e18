package models

import (
	"time"
)

// EquityPoint 资金曲线上的一个观测点，每个 tick 写入一条，写入后不再修改
type EquityPoint struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Ts        time.Time `gorm:"column:ts;not null;index:idx_equity_curve_run_ts,priority:2" json:"ts"` // 观测时间（UTC）
	Equity    float64   `gorm:"type:decimal(20,8);not null" json:"equity"`                             // 账户净值，写入前已截断为非负
	Drawdown  float64   `gorm:"column:dd;type:decimal(10,6);not null" json:"dd"`                       // 相对峰值的回撤，恒 <= 0
	RunID     string    `gorm:"column:run_id;type:varchar(26);not null;index:idx_equity_curve_run_ts,priority:1" json:"run_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (EquityPoint) TableName() string {
	return "equity_curve"
}
