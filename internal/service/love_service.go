package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/fanpulse/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrLevelNotFound 在爱心档位不存在时返回
	ErrLevelNotFound = errors.New("love level not found")
	// ErrNoOpUpgrade 在目标档位不高于当前档位时返回
	ErrNoOpUpgrade = errors.New("love level not higher than current")
	// ErrNoExistingLike 在移除不存在的爱心时返回
	ErrNoExistingLike = errors.New("no existing like to remove")
)

// LoveService 负责送出/升级/移除爱心，以及随之触发的打卡连胜与累计里程碑。
// 一次调用产生的全部账本效果在同一个数据库事务内落库。
type LoveService struct {
	db       *gorm.DB
	rewards  RewardConfig
	notifier Notifier
}

// NewLoveService 构造 LoveService，notifier 为 nil 时退化为日志投递。
func NewLoveService(gdb *gorm.DB, rewards RewardConfig, notifier Notifier) *LoveService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &LoveService{db: gdb, rewards: rewards, notifier: notifier}
}

// LoveResult 汇总一次送爱心产生的全部效果。
type LoveResult struct {
	Level            LoveLevel
	Upgraded         bool
	UserCost         int64
	AuthorReward     int64
	StreakDays       int
	StreakReward     int64
	LikesGivenReward int64
	NewBadges        []string
	NewBalance       int64
}

// GiveLove 对一篇内容送出或升级爱心。
// 首次送出：扣全额、给作者全额奖励、计入连胜与累计里程碑；
// 升级：只结算档位差额，不再触发连胜与里程碑。
func (s *LoveService) GiveLove(postID, userID uint, levelID int, now time.Time) (*LoveResult, error) {
	level, ok := s.rewards.Level(levelID)
	if !ok {
		return nil, ErrLevelNotFound
	}

	result := &LoveResult{Level: level}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 先锁定操作者行：余额、连胜、累计计数都在这把锁下修改
		var actor db.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&actor, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock acting user: %w", err)
		}
		result.NewBalance = actor.HeartBalance

		var post db.Post
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("get post: %w", err)
		}

		// 以唯一约束为准判定首次/升级，避免先查后插的竞态
		like := db.Like{PostID: postID, UserID: userID, LevelID: level.ID}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&like)
		if insert.Error != nil {
			return fmt.Errorf("insert like: %w", insert.Error)
		}

		if insert.RowsAffected == 0 {
			return s.upgradeLike(tx, &post, userID, level, result)
		}
		return s.firstLike(tx, &actor, &post, level, now, result)
	})
	if err != nil {
		return nil, err
	}

	s.dispatchNotifications(userID, result)
	return result, nil
}

func (s *LoveService) firstLike(tx *gorm.DB, actor *db.User, post *db.Post, level LoveLevel, now time.Time, result *LoveResult) error {
	if level.Cost > 0 {
		mutation, err := mutateBalance(tx, actor.ID, -level.Cost, db.TxTypeSpent,
			fmt.Sprintf("送出%s《%s》", level.Name, post.Title))
		if err != nil {
			return err
		}
		result.UserCost = level.Cost
		result.NewBalance = mutation.NewBalance
	}

	if post.UserID != actor.ID && level.Reward > 0 {
		if _, err := mutateBalance(tx, post.UserID, level.Reward, db.TxTypeEarned,
			fmt.Sprintf("《%s》收到%s", post.Title, level.Name)); err != nil {
			return err
		}
		result.AuthorReward = level.Reward
	}

	if err := tx.Model(&db.Post{}).Where("id = ?", post.ID).
		UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
		return fmt.Errorf("increment like count: %w", err)
	}

	if err := s.advanceStreak(tx, actor, now, result); err != nil {
		return err
	}
	return s.advanceLikesGiven(tx, actor, result)
}

func (s *LoveService) upgradeLike(tx *gorm.DB, post *db.Post, userID uint, level LoveLevel, result *LoveResult) error {
	var like db.Like
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("post_id = ? AND user_id = ?", post.ID, userID).
		First(&like).Error; err != nil {
		return fmt.Errorf("load existing like: %w", err)
	}

	if like.LevelID >= level.ID {
		return ErrNoOpUpgrade
	}

	// 旧档位可能已被管理员下调甚至删除；差额为负时按零结算，不做追溯退款
	extraCost, extraReward := level.Cost, level.Reward
	if old, ok := s.rewards.Level(like.LevelID); ok {
		extraCost -= old.Cost
		extraReward -= old.Reward
	}
	if extraCost < 0 {
		extraCost = 0
	}
	if extraReward < 0 {
		extraReward = 0
	}

	result.Upgraded = true

	if extraCost > 0 {
		mutation, err := mutateBalance(tx, userID, -extraCost, db.TxTypeSpent,
			fmt.Sprintf("升级为%s《%s》", level.Name, post.Title))
		if err != nil {
			return err
		}
		result.UserCost = extraCost
		result.NewBalance = mutation.NewBalance
	}

	if post.UserID != userID && extraReward > 0 {
		if _, err := mutateBalance(tx, post.UserID, extraReward, db.TxTypeEarned,
			fmt.Sprintf("《%s》爱心升级为%s", post.Title, level.Name)); err != nil {
			return err
		}
		result.AuthorReward = extraReward
	}

	if err := tx.Model(&db.Like{}).Where("id = ?", like.ID).
		UpdateColumn("level_id", level.ID).Error; err != nil {
		return fmt.Errorf("upgrade like: %w", err)
	}
	return nil
}

// advanceStreak 按自然日推进连胜：昨天有赞 +1，今天已赞不变，否则重置为 1。
// 推进后的值恰好命中阈值时发放一次性奖励。
func (s *LoveService) advanceStreak(tx *gorm.DB, actor *db.User, now time.Time, result *LoveResult) error {
	today := normalizeToDate(now)
	yesterday := today.AddDate(0, 0, -1)

	streak := 1
	advanced := true
	if actor.LastLikeDate != nil {
		switch last := normalizeToDate(*actor.LastLikeDate); {
		case last.Equal(yesterday):
			streak = actor.LikeStreak + 1
		case last.Equal(today):
			streak = actor.LikeStreak
			advanced = false
		}
	}

	if err := tx.Model(&db.User{}).Where("id = ?", actor.ID).
		UpdateColumns(map[string]interface{}{
			"like_streak":    streak,
			"last_like_date": now,
		}).Error; err != nil {
		return fmt.Errorf("update streak: %w", err)
	}

	result.StreakDays = streak
	if !advanced {
		return nil
	}

	tier := tierAt(s.rewards.StreakTiers, streak)
	if tier == nil {
		return nil
	}

	fired, err := s.claimMilestone(tx, actor.ID, db.MilestoneKindStreak, tier.Threshold)
	if err != nil {
		return err
	}
	if !fired {
		return nil
	}

	mutation, err := mutateBalance(tx, actor.ID, tier.Reward, db.TxTypeBonus,
		fmt.Sprintf("连续点赞 %d 天奖励", tier.Threshold))
	if err != nil {
		return err
	}
	result.StreakReward = tier.Reward
	result.NewBalance = mutation.NewBalance

	return s.awardBadge(tx, actor.ID, tier.BadgeID, result)
}

// advanceLikesGiven 推进累计送出计数，恰好命中阈值时发放一次性奖励。
func (s *LoveService) advanceLikesGiven(tx *gorm.DB, actor *db.User, result *LoveResult) error {
	total := actor.LikesGiven + 1
	if err := tx.Model(&db.User{}).Where("id = ?", actor.ID).
		UpdateColumn("likes_given", total).Error; err != nil {
		return fmt.Errorf("update likes given: %w", err)
	}

	tier := tierAt(s.rewards.LikesGivenTiers, total)
	if tier == nil {
		return nil
	}

	fired, err := s.claimMilestone(tx, actor.ID, db.MilestoneKindLikesGiven, tier.Threshold)
	if err != nil {
		return err
	}
	if !fired {
		return nil
	}

	mutation, err := mutateBalance(tx, actor.ID, tier.Reward, db.TxTypeBonus,
		fmt.Sprintf("累计送出 %d 次爱心奖励", tier.Threshold))
	if err != nil {
		return err
	}
	result.LikesGivenReward = tier.Reward
	result.NewBalance = mutation.NewBalance

	return s.awardBadge(tx, actor.ID, tier.BadgeID, result)
}

// claimMilestone 声明一个阈值奖励。返回 true 表示首次命中，可以发放；
// 唯一键冲突说明历史上已经发过，比如连胜归零后重新爬回同一阈值。
func (s *LoveService) claimMilestone(tx *gorm.DB, userID uint, kind string, threshold int) (bool, error) {
	milestone := db.RewardMilestone{UserID: userID, Kind: kind, Threshold: threshold}
	insert := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}, {Name: "threshold"}},
		DoNothing: true,
	}).Create(&milestone)
	if insert.Error != nil {
		return false, fmt.Errorf("claim milestone: %w", insert.Error)
	}
	return insert.RowsAffected == 1, nil
}

func (s *LoveService) awardBadge(tx *gorm.DB, userID uint, badgeID string, result *LoveResult) error {
	if badgeID == "" {
		return nil
	}

	badge := db.UserBadge{UserID: userID, BadgeID: badgeID}
	insert := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(&badge)
	if insert.Error != nil {
		return fmt.Errorf("award badge: %w", insert.Error)
	}
	if insert.RowsAffected == 1 {
		result.NewBadges = append(result.NewBadges, badgeID)
	}
	return nil
}

// RemoveLove 移除已送出的爱心并递减内容计数器。
// 这是内容图谱操作而非账本回滚：已花费与已发放的爱心不做退还。
// 物理删除：软删除的行会占住 (post_id, user_id) 唯一键，导致无法再次送出。
func (s *LoveService) RemoveLove(postID, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().
			Where("post_id = ? AND user_id = ?", postID, userID).
			Delete(&db.Like{})
		if res.Error != nil {
			return fmt.Errorf("delete like: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNoExistingLike
		}

		if err := tx.Model(&db.Post{}).
			Where("id = ? AND like_count > 0", postID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
			return fmt.Errorf("decrement like count: %w", err)
		}
		return nil
	})
}

// Badges 返回用户已获得的全部徽章。
func (s *LoveService) Badges(userID uint) ([]db.UserBadge, error) {
	var badges []db.UserBadge
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

func (s *LoveService) dispatchNotifications(userID uint, result *LoveResult) {
	if result.StreakReward > 0 {
		s.notifier.Notify(userID, "streak_bonus",
			fmt.Sprintf("连续点赞 %d 天，获得 %d 爱心", result.StreakDays, result.StreakReward))
	}
	if result.LikesGivenReward > 0 {
		s.notifier.Notify(userID, "likes_milestone",
			fmt.Sprintf("累计送出爱心达标，获得 %d 爱心", result.LikesGivenReward))
	}
	for _, badge := range result.NewBadges {
		s.notifier.Notify(userID, "badge_awarded", badge)
	}
}

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
