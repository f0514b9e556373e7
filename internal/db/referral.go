package db

import (
	"time"

	"gorm.io/gorm"
)

// 推荐关系状态
const (
	ReferralStatusPending   = "pending"
	ReferralStatusCompleted = "completed"
)

// Referral 在注册时创建，状态 pending -> completed 至多迁移一次。
// ReferredID 唯一：一个新用户只能被推荐一次。
type Referral struct {
	gorm.Model
	ReferrerID   uint   `gorm:"index;not null"`
	ReferredID   uint   `gorm:"uniqueIndex;not null"`
	ReferralCode string `gorm:"size:16;not null"`
	Status       string `gorm:"size:16;not null;default:pending"`
	CompletedAt  *time.Time
}

// ReferralRewardLog 是推荐奖励的发放流水，每个受益方一行，只追加。
// Generation 0 表示被推荐人本人，1 表示直接推荐人；更深层级不发奖。
type ReferralRewardLog struct {
	gorm.Model
	ReferralID   uint  `gorm:"index;not null"`
	UserID       uint  `gorm:"index;not null"`
	NewUserID    uint  `gorm:"not null"`
	Generation   int   `gorm:"not null"`
	RewardAmount int64 `gorm:"not null"`
}
