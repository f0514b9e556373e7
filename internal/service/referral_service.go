package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fanpulse/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrReferralCodeInvalid 在推荐码不存在时返回
	ErrReferralCodeInvalid = errors.New("unknown referral code")
	// ErrSelfReferral 在用户使用自己的推荐码时返回
	ErrSelfReferral = errors.New("cannot refer yourself")
)

// ReferralService 负责推荐关系的建立与完成结算。
// 只奖励直接推荐人（第 1 代），更深的邀请链不参与发奖。
type ReferralService struct {
	db       *gorm.DB
	rewards  RewardConfig
	notifier Notifier
}

// NewReferralService 构造 ReferralService
func NewReferralService(gdb *gorm.DB, rewards RewardConfig, notifier Notifier) *ReferralService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ReferralService{db: gdb, rewards: rewards, notifier: notifier}
}

// NewReferralCode 生成 8 位推荐码。
func NewReferralCode() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Register 在注册时建立推荐关系：解析推荐码、写 referred_by、落 pending 记录。
// Referral 表以 referred_id 唯一，重复调用是幂等的。
func (s *ReferralService) Register(newUserID uint, code string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.registerTx(tx, newUserID, code)
	})
}

// registerTx 在调用方事务内建立推荐关系，注册流程借此与建号保持原子。
func (s *ReferralService) registerTx(tx *gorm.DB, newUserID uint, code string) error {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ErrReferralCodeInvalid
	}

	var referrer db.User
	if err := tx.Where("referral_code = ? AND referral_code <> ''", trimmed).
		First(&referrer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReferralCodeInvalid
		}
		return fmt.Errorf("resolve referral code: %w", err)
	}

	if referrer.ID == newUserID {
		return ErrSelfReferral
	}

	res := tx.Model(&db.User{}).
		Where("id = ?", newUserID).
		UpdateColumn("referred_by", referrer.ID)
	if res.Error != nil {
		return fmt.Errorf("set referred by: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	referral := db.Referral{
		ReferrerID:   referrer.ID,
		ReferredID:   newUserID,
		ReferralCode: trimmed,
		Status:       db.ReferralStatusPending,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "referred_id"}},
		DoNothing: true,
	}).Create(&referral).Error; err != nil {
		return fmt.Errorf("create referral: %w", err)
	}
	return nil
}

// PayoutEntry 描述一笔已发放的推荐奖励。
type PayoutEntry struct {
	UserID     uint
	Amount     int64
	Generation int
}

// Complete 在被推荐用户触发首个合格动作时结算推荐奖励。
// 没有 pending 记录时静默返回空结果：该用户可能本来就不是被邀请来的。
// 状态迁移通过条件 UPDATE 完成，并发的重复触发至多有一次能命中。
func (s *ReferralService) Complete(userID uint, now time.Time) ([]PayoutEntry, error) {
	var payouts []PayoutEntry

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.Referral{}).
			Where("referred_id = ? AND status = ?", userID, db.ReferralStatusPending).
			Updates(map[string]interface{}{
				"status":       db.ReferralStatusCompleted,
				"completed_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("complete referral: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var referral db.Referral
		if err := tx.Where("referred_id = ?", userID).First(&referral).Error; err != nil {
			return fmt.Errorf("reload referral: %w", err)
		}

		if _, err := mutateBalance(tx, referral.ReferredID, s.rewards.ReferredReward,
			db.TxTypeBonus, "受邀注册完成奖励"); err != nil {
			return err
		}
		if _, err := mutateBalance(tx, referral.ReferrerID, s.rewards.ReferrerReward,
			db.TxTypeBonus, "成功邀请新用户奖励"); err != nil {
			return err
		}

		logs := []db.ReferralRewardLog{
			{
				ReferralID:   referral.ID,
				UserID:       referral.ReferredID,
				NewUserID:    referral.ReferredID,
				Generation:   0,
				RewardAmount: s.rewards.ReferredReward,
			},
			{
				ReferralID:   referral.ID,
				UserID:       referral.ReferrerID,
				NewUserID:    referral.ReferredID,
				Generation:   1,
				RewardAmount: s.rewards.ReferrerReward,
			},
		}
		if err := tx.Create(&logs).Error; err != nil {
			return fmt.Errorf("log referral rewards: %w", err)
		}

		payouts = []PayoutEntry{
			{UserID: referral.ReferredID, Amount: s.rewards.ReferredReward, Generation: 0},
			{UserID: referral.ReferrerID, Amount: s.rewards.ReferrerReward, Generation: 1},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, payout := range payouts {
		s.notifier.Notify(payout.UserID, "referral_reward",
			fmt.Sprintf("推荐奖励 %d 爱心已到账", payout.Amount))
	}
	return payouts, nil
}

// Status 汇总用户的推荐码与邀请进度，供个人页展示。
type Status struct {
	Code           string
	InvitedCount   int64
	CompletedCount int64
}

// StatusOf 返回用户的推荐状态。
func (s *ReferralService) StatusOf(userID uint) (*Status, error) {
	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	status := &Status{Code: user.ReferralCode}

	if err := s.db.Model(&db.Referral{}).
		Where("referrer_id = ?", userID).
		Count(&status.InvitedCount).Error; err != nil {
		return nil, fmt.Errorf("count referrals: %w", err)
	}
	if err := s.db.Model(&db.Referral{}).
		Where("referrer_id = ? AND status = ?", userID, db.ReferralStatusCompleted).
		Count(&status.CompletedCount).Error; err != nil {
		return nil, fmt.Errorf("count completed referrals: %w", err)
	}

	return status, nil
}
