package db

import "gorm.io/gorm"

// 账本流水类型
const (
	TxTypeEarned = "earned"
	TxTypeSpent  = "spent"
	TxTypeBonus  = "bonus"
	TxTypeAdmin  = "admin"
)

// HeartTransaction 是爱心余额的不可变流水：只追加，不更新、不删除。
// Amount 为有符号变动额，Balance 为变动后的余额快照，用于审计对账。
type HeartTransaction struct {
	gorm.Model
	UserID      uint   `gorm:"index;not null"`
	Amount      int64  `gorm:"not null"`
	Type        string `gorm:"size:16;not null"`
	Description string `gorm:"size:255"`
	Balance     int64  `gorm:"not null"`
}
