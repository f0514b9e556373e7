package db

import "gorm.io/gorm"

// Post 定义了社区内容模型。
// LikeCount 是冗余计数器，随 Like 行的增删在同一事务内维护。
type Post struct {
	gorm.Model
	Title     string `gorm:"not null"`
	Content   string
	Summary   string
	UserID    uint `gorm:"index;not null"`
	User      User
	LikeCount int `gorm:"not null;default:0"`
}
