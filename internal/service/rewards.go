package service

// LoveLevel 描述一档"爱心"：送出方花费 Cost，内容作者获得 Reward。
// ID 即档位序号，只允许向更高序号升级。
type LoveLevel struct {
	ID     int
	Name   string
	Emoji  string
	Cost   int64
	Reward int64
}

// RewardTier 描述一个一次性奖励阈值：计数器恰好等于 Threshold 时发放。
// BadgeID 为空表示该档不附带徽章。
type RewardTier struct {
	Threshold int
	Reward    int64
	BadgeID   string
}

// RewardConfig 汇总全部静态奖励表。
// 启动时注入各服务，运行期不可变，测试可替换为确定性表。
type RewardConfig struct {
	LoveLevels      []LoveLevel
	StreakTiers     []RewardTier
	LikesGivenTiers []RewardTier
	ReferredReward  int64
	ReferrerReward  int64
	StartingBalance int64
}

// DefaultRewardConfig 返回线上默认奖励表。
func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		LoveLevels: []LoveLevel{
			{ID: 1, Name: "点赞", Emoji: "👍", Cost: 0, Reward: 1},
			{ID: 2, Name: "喜欢", Emoji: "❤️", Cost: 5, Reward: 3},
			{ID: 3, Name: "超爱", Emoji: "💖", Cost: 20, Reward: 10},
			{ID: 4, Name: "挚爱", Emoji: "💝", Cost: 50, Reward: 30},
		},
		StreakTiers: []RewardTier{
			{Threshold: 3, Reward: 10},
			{Threshold: 7, Reward: 30, BadgeID: "streak-7"},
			{Threshold: 14, Reward: 70, BadgeID: "streak-14"},
			{Threshold: 30, Reward: 200, BadgeID: "streak-30"},
		},
		LikesGivenTiers: []RewardTier{
			{Threshold: 10, Reward: 20},
			{Threshold: 50, Reward: 100, BadgeID: "supporter-50"},
			{Threshold: 100, Reward: 300, BadgeID: "supporter-100"},
		},
		ReferredReward:  30,
		ReferrerReward:  50,
		StartingBalance: 50,
	}
}

// Level 按序号查找爱心档位。
func (c RewardConfig) Level(id int) (LoveLevel, bool) {
	for _, level := range c.LoveLevels {
		if level.ID == id {
			return level, true
		}
	}
	return LoveLevel{}, false
}

// tierAt 返回计数器恰好命中的阈值档，未命中返回 nil。
func tierAt(tiers []RewardTier, count int) *RewardTier {
	for i := range tiers {
		if tiers[i].Threshold == count {
			return &tiers[i]
		}
	}
	return nil
}
