package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/fanpulse/internal/service"
	"github.com/gin-gonic/gin"
)

type loveRequest struct {
	LevelID int `json:"level_id" binding:"required"`
}

// GiveLove 处理对内容送出/升级爱心
func (a *API) GiveLove(c *gin.Context) {
	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的内容ID")
		return
	}

	var req loveRequest
	if !bindJSON(c, &req, "爱心档位不能为空") {
		return
	}

	result, err := a.love.GiveLove(postID, currentUserID(c), req.LevelID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLevelNotFound):
			respondError(c, http.StatusNotFound, "爱心档位不存在")
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, "内容不存在")
		case errors.Is(err, service.ErrNoOpUpgrade):
			respondError(c, http.StatusBadRequest, "只能升级到更高的爱心档位")
		case errors.Is(err, service.ErrInsufficientBalance):
			respondError(c, http.StatusBadRequest, "爱心余额不足")
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusUnauthorized, "请先登录")
		default:
			respondError(c, http.StatusInternalServerError, "送出爱心失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"level": gin.H{
			"id":    result.Level.ID,
			"name":  result.Level.Name,
			"emoji": result.Level.Emoji,
		},
		"upgraded":           result.Upgraded,
		"user_cost":          result.UserCost,
		"author_reward":      result.AuthorReward,
		"streak_days":        result.StreakDays,
		"streak_reward":      result.StreakReward,
		"likes_given_reward": result.LikesGivenReward,
		"new_badges":         result.NewBadges,
		"new_balance":        result.NewBalance,
	})
}

// RemoveLove 移除已送出的爱心，不退还已结算的费用与奖励
func (a *API) RemoveLove(c *gin.Context) {
	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的内容ID")
		return
	}

	if err := a.love.RemoveLove(postID, currentUserID(c)); err != nil {
		switch {
		case errors.Is(err, service.ErrNoExistingLike):
			respondError(c, http.StatusNotFound, "尚未对该内容送出爱心")
		default:
			respondError(c, http.StatusInternalServerError, "移除爱心失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已移除爱心"})
}

// MyBadges 返回当前用户的徽章列表
func (a *API) MyBadges(c *gin.Context) {
	badges, err := a.love.Badges(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取徽章列表失败")
		return
	}

	response := make([]gin.H, 0, len(badges))
	for _, badge := range badges {
		response = append(response, gin.H{
			"badge_id":   badge.BadgeID,
			"icon_url":   badge.IconURL,
			"awarded_at": badge.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"badges": response})
}
