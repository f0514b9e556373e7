package db

import "gorm.io/gorm"

// Like 记录某个用户对某篇内容给出的"爱心"档位。
// 唯一键 (post_id, user_id)：每人每篇内容至多一条记录，升级在原行上修改档位。
type Like struct {
	gorm.Model
	PostID  uint `gorm:"not null;uniqueIndex:uk_like_post_user,priority:1"`
	UserID  uint `gorm:"not null;uniqueIndex:uk_like_post_user,priority:2"`
	LevelID int  `gorm:"not null"`
}
