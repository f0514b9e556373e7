package main

import (
	"fmt"
	"log"
	"time"

	"github.com/fanpulse/internal/config"
	"github.com/fanpulse/internal/db"
	"github.com/fanpulse/internal/service"
	"gorm.io/gorm"
)

// 测试数据生成器：建一批演示账号、任务和内容，并走正式服务结算爱心。
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	rewards := service.DefaultRewardConfig()

	users := seedUsers(db.DB, rewards)
	seedTasks(db.DB)
	posts := seedPosts(db.DB, rewards, users)
	seedLoves(db.DB, rewards, users, posts)

	fmt.Println("测试数据生成完成！")
	fmt.Println("用户: star_fan / lucky_cat / night_owl (密码: fan123)")
}

// seedUsers 建演示账号并发注册礼包；lucky_cat 经 star_fan 的推荐码注册。
func seedUsers(gdb *gorm.DB, rewards service.RewardConfig) []db.User {
	var count int64
	gdb.Model(&db.User{}).Where("is_admin = ?", false).Count(&count)
	if count > 0 {
		fmt.Println("演示用户已存在，跳过创建")
		var users []db.User
		gdb.Where("is_admin = ?", false).Order("id ASC").Find(&users)
		return users
	}

	referrals := service.NewReferralService(gdb, rewards, nil)
	accounts := service.NewAccountService(gdb, rewards, referrals)

	first, err := accounts.Register("star_fan", "fan123", "")
	if err != nil {
		log.Fatal("创建演示用户失败:", err)
	}

	second, err := accounts.Register("lucky_cat", "fan123", first.ReferralCode)
	if err != nil {
		log.Fatal("创建演示用户失败:", err)
	}

	third, err := accounts.Register("night_owl", "fan123", "")
	if err != nil {
		log.Fatal("创建演示用户失败:", err)
	}

	fmt.Println("✅ 演示用户创建完成")
	return []db.User{*first, *second, *third}
}

// seedTasks 建一套常用任务配置。
func seedTasks(gdb *gorm.DB) {
	var count int64
	gdb.Model(&db.Task{}).Count(&count)
	if count > 0 {
		fmt.Println("任务已存在，跳过创建")
		return
	}

	tasks := service.NewTaskService(gdb)
	seeds := []service.TaskInput{
		{Slug: "daily-checkin", Name: "每日签到", Category: "daily", HeartsReward: 5, IsActive: true, IsRepeatable: true, MaxPerDay: 1},
		{Slug: "share-post", Name: "分享内容到社交平台", Category: "daily", HeartsReward: 5, IsActive: true, IsRepeatable: true, MaxPerDay: 3},
		{Slug: "bind-phone", Name: "绑定手机号", Category: "onboarding", HeartsReward: 20, IsActive: true},
		{Slug: "complete-profile", Name: "完善个人资料", Category: "onboarding", HeartsReward: 10, IsActive: true},
	}
	for _, input := range seeds {
		if _, err := tasks.Create(input); err != nil {
			log.Printf("创建任务 %s 失败: %v", input.Slug, err)
		}
	}

	fmt.Println("✅ 演示任务创建完成")
}

// seedPosts 以正式服务发内容，lucky_cat 的首篇会触发推荐结算。
func seedPosts(gdb *gorm.DB, rewards service.RewardConfig, users []db.User) []db.Post {
	var count int64
	gdb.Model(&db.Post{}).Count(&count)
	if count > 0 {
		fmt.Println("内容已存在，跳过创建")
		var posts []db.Post
		gdb.Order("id ASC").Find(&posts)
		return posts
	}
	if len(users) < 3 {
		return nil
	}

	referrals := service.NewReferralService(gdb, rewards, nil)
	postSvc := service.NewPostService(gdb, referrals)

	seeds := []struct {
		author  uint
		title   string
		content string
	}{
		{users[0].ID, "新专辑首听感受", "**主打歌太顶了**，编曲和vocal都是巅峰水平，循环一整天停不下来。"},
		{users[1].ID, "线下应援活动回顾", "周末的应援现场气氛超好，灯牌海一眼望不到头，附现场照片若干。"},
		{users[2].ID, "演唱会抢票攻略", "1. 提前登录\n2. 多端同时开抢\n3. 备好候补方案\n\n祝大家都能抢到票！"},
		{users[0].ID, "周边开箱分享", "这次的官方周边质量意外地好，尤其是小卡的印刷，强烈推荐入手。"},
	}

	var posts []db.Post
	for idx, seed := range seeds {
		post, err := postSvc.Create(service.PostInput{
			Title:   seed.title,
			Content: seed.content,
			UserID:  seed.author,
		}, time.Now().Add(-time.Duration(len(seeds)-idx)*6*time.Hour))
		if err != nil {
			log.Printf("创建内容失败: %v", err)
			continue
		}
		posts = append(posts, *post)
	}

	fmt.Println("✅ 演示内容创建完成")
	return posts
}

// seedLoves 让演示账号互相送爱心，顺带产出真实的账本流水。
func seedLoves(gdb *gorm.DB, rewards service.RewardConfig, users []db.User, posts []db.Post) {
	if len(users) < 3 || len(posts) < 2 {
		return
	}

	var count int64
	gdb.Model(&db.Like{}).Count(&count)
	if count > 0 {
		fmt.Println("爱心记录已存在，跳过创建")
		return
	}

	love := service.NewLoveService(gdb, rewards, nil)
	now := time.Now()

	seeds := []struct {
		post  uint
		giver uint
		level int
	}{
		{posts[0].ID, users[1].ID, 2},
		{posts[0].ID, users[2].ID, 1},
		{posts[1].ID, users[0].ID, 3},
		{posts[1].ID, users[2].ID, 2},
	}
	for _, seed := range seeds {
		if _, err := love.GiveLove(seed.post, seed.giver, seed.level, now); err != nil {
			log.Printf("送出爱心失败: %v", err)
		}
	}

	fmt.Println("✅ 演示爱心记录创建完成")
}
