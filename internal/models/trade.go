package models

import (
	"time"
)

// Trade 交易记录，平仓相关字段（exit/pnl/r_multiple/reason_out）要么同时存在要么同时为空
type Trade struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Ts        time.Time `gorm:"column:ts;not null;index:idx_trades_run_ts,priority:2" json:"ts"` // 成交时间（UTC）
	Side      string    `gorm:"type:varchar(10);not null" json:"side"`                           // long/short
	Qty       float64   `gorm:"type:decimal(20,8);not null" json:"qty"`                          // 成交数量
	Entry     float64   `gorm:"type:decimal(20,8);not null" json:"entry"`                        // 开仓价格
	Exit      *float64  `gorm:"column:exit;type:decimal(20,8)" json:"exit,omitempty"`            // 平仓价格，持仓中为空
	Pnl       *float64  `gorm:"type:decimal(20,8)" json:"pnl,omitempty"`                         // 已实现盈亏
	Fees      float64   `gorm:"type:decimal(20,8);not null;default:0" json:"fees"`               // 手续费
	RMultiple *float64  `gorm:"column:r_multiple;type:decimal(10,4)" json:"r_multiple,omitempty"`
	ReasonIn  string    `gorm:"column:reason_in;not null" json:"reason_in"`       // 开仓理由
	ReasonOut *string   `gorm:"column:reason_out" json:"reason_out,omitempty"`    // 平仓理由
	RunID     string    `gorm:"column:run_id;type:varchar(26);not null;index:idx_trades_run_ts,priority:1" json:"run_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (Trade) TableName() string {
	return "trades"
}
