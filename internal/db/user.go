package db

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了用户模型。
// HeartBalance 只允许通过 LedgerService 修改；
// LikeStreak/LastLikeDate/LikesGiven 只允许在点赞事务内更新。
type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null"`
	Password     string `gorm:"not null"`
	IsAdmin      bool   `gorm:"default:false"`
	HeartBalance int64  `gorm:"not null;default:0"`
	LikeStreak   int    `gorm:"not null;default:0"`
	LastLikeDate *time.Time
	LikesGiven   int    `gorm:"not null;default:0"`
	ReferralCode string `gorm:"uniqueIndex;size:16"`
	ReferredBy   *uint
}

// EnsureAdmin 存在性检查：若提供的用户名与密码均非空且不存在对应账号，
// 则创建一个 bcrypt 哈希的管理员用户。
func EnsureAdmin(username, password, referralCode string) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return DB.Create(&User{
			Username:     trimmedUser,
			Password:     string(hashed),
			IsAdmin:      true,
			ReferralCode: referralCode,
		}).Error
	}

	return nil
}
