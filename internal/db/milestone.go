package db

import "gorm.io/gorm"

// 里程碑种类，对应不同的累进计数器。
const (
	MilestoneKindStreak     = "streak"
	MilestoneKindLikesGiven = "likes_given"
)

// RewardMilestone 记录某个阈值奖励已对用户发放过。
// 连胜归零后重新爬回同一阈值时，唯一键会拦住第二次发放。
type RewardMilestone struct {
	gorm.Model
	UserID    uint   `gorm:"not null;uniqueIndex:uk_milestone,priority:1"`
	Kind      string `gorm:"size:32;not null;uniqueIndex:uk_milestone,priority:2"`
	Threshold int    `gorm:"not null;uniqueIndex:uk_milestone,priority:3"`
}
