package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fanpulse/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUsernameTaken 在用户名已被占用时返回
	ErrUsernameTaken = errors.New("username already taken")
	// ErrAccountInvalid 在用户名或密码为空时返回
	ErrAccountInvalid = errors.New("username and password are required")
)

// AccountService 负责注册建号：建用户、发注册礼包、可选地挂推荐关系。
// 三步在同一事务内完成，推荐码无效时整个注册被拒绝。
type AccountService struct {
	db        *gorm.DB
	rewards   RewardConfig
	referrals *ReferralService
}

// NewAccountService 构造 AccountService
func NewAccountService(gdb *gorm.DB, rewards RewardConfig, referrals *ReferralService) *AccountService {
	return &AccountService{db: gdb, rewards: rewards, referrals: referrals}
}

// Register 创建新账号。referralCode 为空表示自然注册。
func (s *AccountService) Register(username, password, referralCode string) (*db.User, error) {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil, ErrAccountInvalid
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{
		Username:     trimmedUser,
		Password:     string(hashed),
		ReferralCode: NewReferralCode(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing db.User
		if err := tx.Where("username = ?", trimmedUser).First(&existing).Error; err == nil {
			return ErrUsernameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check username: %w", err)
		}

		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		if s.rewards.StartingBalance > 0 {
			if _, err := mutateBalance(tx, user.ID, s.rewards.StartingBalance,
				db.TxTypeBonus, "新用户注册礼包"); err != nil {
				return err
			}
		}

		if strings.TrimSpace(referralCode) != "" {
			return s.referrals.registerTx(tx, user.ID, referralCode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}
