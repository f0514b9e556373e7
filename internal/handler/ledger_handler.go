package handler

import (
	"errors"
	"net/http"

	"github.com/fanpulse/internal/service"
	"github.com/gin-gonic/gin"
)

// GetBalance 返回当前用户的爱心余额
func (a *API) GetBalance(c *gin.Context) {
	balance, err := a.ledger.BalanceOf(currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "请先登录")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取余额失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// GetHistory 分页返回当前用户的账本流水
func (a *API) GetHistory(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)

	history, err := a.ledger.History(currentUserID(c), page, perPage)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取流水失败")
		return
	}

	transactions := make([]gin.H, 0, len(history.Transactions))
	for _, record := range history.Transactions {
		transactions = append(transactions, gin.H{
			"amount":      record.Amount,
			"type":        record.Type,
			"description": record.Description,
			"balance":     record.Balance,
			"created_at":  record.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        history.Total,
		"page":         history.Page,
		"per_page":     history.PerPage,
	})
}

type adjustRequest struct {
	UserID      uint   `json:"user_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description"`
}

// AdminAdjustBalance 管理员手工调整余额，走 admin 流水留痕
func (a *API) AdminAdjustBalance(c *gin.Context) {
	var req adjustRequest
	if !bindJSON(c, &req, "用户ID和调整金额不能为空") {
		return
	}

	description := req.Description
	if description == "" {
		description = "管理员手工调整"
	}

	result, err := a.ledger.AdminAdjust(req.UserID, req.Amount, description)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "用户不存在")
		case errors.Is(err, service.ErrInsufficientBalance):
			respondError(c, http.StatusBadRequest, "调整会导致余额为负")
		default:
			respondError(c, http.StatusInternalServerError, "调整余额失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "调整成功", "new_balance": result.NewBalance})
}

// AdminReconcile 校验指定用户的余额与流水合计是否一致
func (a *API) AdminReconcile(c *gin.Context) {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的用户ID")
		return
	}

	result, err := a.ledger.Reconcile(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "用户不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "对账失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":    result.UserID,
		"balance":    result.Balance,
		"ledger_sum": result.LedgerSum,
		"consistent": result.Consistent,
	})
}
