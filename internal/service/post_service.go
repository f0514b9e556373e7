package service

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fanpulse/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"
)

var (
	// ErrPostNotFound 在内容不存在时返回
	ErrPostNotFound = errors.New("post not found")
	// ErrPostInvalid 在标题或正文为空时返回
	ErrPostInvalid = errors.New("post title and content are required")
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	contentSanitizer = bluemonday.UGCPolicy()
)

// PostService 是给爱心引擎提供内容载体的最小内容层：
// 创建时渲染并消毒 Markdown 正文，首篇内容作为推荐完成的合格动作。
type PostService struct {
	db        *gorm.DB
	referrals *ReferralService
}

// NewPostService 构造 PostService
func NewPostService(gdb *gorm.DB, referrals *ReferralService) *PostService {
	return &PostService{db: gdb, referrals: referrals}
}

// PostInput 定义创建内容时可配置字段
type PostInput struct {
	Title   string
	Content string
	UserID  uint
}

// PostListResult 聚合分页列表数据
type PostListResult struct {
	Posts      []db.Post
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// Create 创建内容；若这是作者的第一篇内容，触发其推荐关系的完成结算。
func (s *PostService) Create(input PostInput, now time.Time) (*db.Post, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, ErrPostInvalid
	}

	post := db.Post{
		Title:   title,
		Content: content,
		Summary: renderSummary(content),
		UserID:  input.UserID,
	}

	var firstPost bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.Post{}).
			Where("user_id = ?", input.UserID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("count user posts: %w", err)
		}
		firstPost = count == 0

		if err := tx.Create(&post).Error; err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 合格动作：首篇内容发布后结算推荐奖励。
	// 结算失败只记日志，不影响已创建的内容；pending 记录仍在，可重试。
	if firstPost && s.referrals != nil {
		if _, err := s.referrals.Complete(input.UserID, now); err != nil {
			log.Printf("referral completion for user %d failed: %v", input.UserID, err)
		}
	}

	return &post, nil
}

// Get 按 ID 获取内容，预加载作者。
func (s *PostService) Get(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("User").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// List 按创建时间倒序分页返回内容。
func (s *PostService) List(page, perPage int) (*PostListResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int64
	if err := s.db.Model(&db.Post{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	var posts []db.Post
	if err := s.db.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))

	return &PostListResult{
		Posts:      posts,
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		PerPage:    perPage,
	}, nil
}

// renderSummary 把 Markdown 正文渲染为经过消毒的 HTML 摘要。
func renderSummary(content string) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return ""
	}
	return contentSanitizer.Sanitize(buf.String())
}
