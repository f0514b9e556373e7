package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// MyReferral 返回当前用户的推荐码与邀请进度
func (a *API) MyReferral(c *gin.Context) {
	status, err := a.referrals.StatusOf(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取推荐信息失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code":   status.Code,
		"invited_count":   status.InvitedCount,
		"completed_count": status.CompletedCount,
	})
}

// AdminCompleteReferral 手工触发指定用户的推荐完成结算。
// 常规触发来自首篇内容发布，这个入口用于运营补偿。
func (a *API) AdminCompleteReferral(c *gin.Context) {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的用户ID")
		return
	}

	payouts, err := a.referrals.Complete(userID, time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "推荐结算失败")
		return
	}

	rewards := make([]gin.H, 0, len(payouts))
	for _, payout := range payouts {
		rewards = append(rewards, gin.H{
			"user_id":    payout.UserID,
			"amount":     payout.Amount,
			"generation": payout.Generation,
		})
	}

	c.JSON(http.StatusOK, gin.H{"rewards": rewards})
}
