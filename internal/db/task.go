package db

import (
	"time"

	"gorm.io/gorm"
)

// Task 是后台维护的可完成任务定义。
// MaxPerDay 仅对可重复任务生效，0 表示当天不限次数。
// IsActive 不能带 default 标签：GORM 建行时会跳过带默认值的零值字段，
// 停用状态的任务会被悄悄存成启用。
type Task struct {
	gorm.Model
	Slug         string `gorm:"uniqueIndex;size:64;not null"`
	Name         string `gorm:"not null"`
	Category     string `gorm:"size:32;index"`
	HeartsReward int64  `gorm:"not null;default:0"`
	IsActive     bool   `gorm:"not null"`
	IsRepeatable bool   `gorm:"not null;default:false"`
	MaxPerDay    int    `gorm:"not null;default:0"`
}

// TaskCompletion 记录一次任务完成，只创建不修改。
// 非重复任务依赖 (user_id, task_id) 级别的查重；重复任务按自然日计数限频。
type TaskCompletion struct {
	gorm.Model
	UserID       uint      `gorm:"not null;index:idx_completion_user_task,priority:1"`
	TaskID       uint      `gorm:"not null;index:idx_completion_user_task,priority:2"`
	CompletedAt  time.Time `gorm:"not null;index"`
	HeartsEarned int64     `gorm:"not null"`
}
