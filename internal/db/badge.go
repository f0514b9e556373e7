package db

import "gorm.io/gorm"

// UserBadge 记录用户获得的徽章。
// 唯一键 (user_id, badge_id) 保证同一徽章不会重复授予。
type UserBadge struct {
	gorm.Model
	UserID  uint   `gorm:"not null;uniqueIndex:uk_badge_user,priority:1"`
	BadgeID string `gorm:"size:64;not null;uniqueIndex:uk_badge_user,priority:2"`
	IconURL string `gorm:"size:255"`
}
