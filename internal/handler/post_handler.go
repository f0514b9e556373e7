package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/fanpulse/internal/db"
	"github.com/fanpulse/internal/service"
	"github.com/gin-gonic/gin"
)

type postRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func postView(post db.Post) gin.H {
	return gin.H{
		"id":         post.ID,
		"title":      post.Title,
		"summary":    post.Summary,
		"author":     post.User.Username,
		"like_count": post.LikeCount,
		"created_at": post.CreatedAt,
	}
}

// CreatePost 创建内容；首篇内容会触发作者的推荐完成结算
func (a *API) CreatePost(c *gin.Context) {
	var req postRequest
	if !bindJSON(c, &req, "标题和正文不能为空") {
		return
	}

	post, err := a.posts.Create(service.PostInput{
		Title:   req.Title,
		Content: req.Content,
		UserID:  currentUserID(c),
	}, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrPostInvalid) {
			respondError(c, http.StatusBadRequest, "标题和正文不能为空")
			return
		}
		respondError(c, http.StatusInternalServerError, "创建内容失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "发布成功", "post": postView(*post)})
}

// GetPost 获取单篇内容
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的内容ID")
		return
	}

	post, err := a.posts.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "内容不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取内容失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": postView(*post)})
}

// ListPosts 分页返回内容列表
func (a *API) ListPosts(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)

	result, err := a.posts.List(page, perPage)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取内容列表失败")
		return
	}

	posts := make([]gin.H, 0, len(result.Posts))
	for _, post := range result.Posts {
		posts = append(posts, postView(post))
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":       posts,
		"total":       result.Total,
		"total_pages": result.TotalPages,
		"page":        result.Page,
		"per_page":    result.PerPage,
	})
}
