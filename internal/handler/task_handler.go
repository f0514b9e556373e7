package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/fanpulse/internal/service"
	"github.com/gin-gonic/gin"
)

type taskRequest struct {
	Slug         string `json:"slug" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Category     string `json:"category"`
	HeartsReward int64  `json:"hearts_reward"`
	IsActive     bool   `json:"is_active"`
	IsRepeatable bool   `json:"is_repeatable"`
	MaxPerDay    int    `json:"max_per_day"`
}

func taskInputFromRequest(req taskRequest) service.TaskInput {
	return service.TaskInput{
		Slug:         req.Slug,
		Name:         req.Name,
		Category:     req.Category,
		HeartsReward: req.HeartsReward,
		IsActive:     req.IsActive,
		IsRepeatable: req.IsRepeatable,
		MaxPerDay:    req.MaxPerDay,
	}
}

// ListTasks 返回用户可见的启用任务列表
func (a *API) ListTasks(c *gin.Context) {
	tasks, err := a.tasks.List(service.TaskFilter{
		Category:   c.Query("category"),
		OnlyActive: true,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取任务列表失败")
		return
	}

	response := make([]gin.H, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, gin.H{
			"slug":          task.Slug,
			"name":          task.Name,
			"category":      task.Category,
			"hearts_reward": task.HeartsReward,
			"is_repeatable": task.IsRepeatable,
			"max_per_day":   task.MaxPerDay,
		})
	}

	c.JSON(http.StatusOK, gin.H{"tasks": response})
}

// CompleteTask 结算一次任务完成
func (a *API) CompleteTask(c *gin.Context) {
	result, err := a.tasks.Complete(currentUserID(c), c.Param("slug"), time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			respondError(c, http.StatusNotFound, "任务不存在或已停用")
		case errors.Is(err, service.ErrTaskAlreadyCompleted):
			respondError(c, http.StatusBadRequest, "任务已完成，不能重复领取")
		case errors.Is(err, service.ErrTaskDailyLimit):
			respondError(c, http.StatusBadRequest, "今日完成次数已达上限")
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusUnauthorized, "请先登录")
		default:
			respondError(c, http.StatusInternalServerError, "完成任务失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "任务完成",
		"hearts_earned": result.HeartsEarned,
		"new_balance":   result.NewBalance,
	})
}

// AdminListTasks 后台任务列表，支持筛选
func (a *API) AdminListTasks(c *gin.Context) {
	tasks, err := a.tasks.List(service.TaskFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取任务列表失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// AdminCreateTask 创建任务
func (a *API) AdminCreateTask(c *gin.Context) {
	var req taskRequest
	if !bindJSON(c, &req, "任务标识和名称不能为空") {
		return
	}

	task, err := a.tasks.Create(taskInputFromRequest(req))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskSlugExists):
			respondError(c, http.StatusBadRequest, "任务标识已存在")
		case errors.Is(err, service.ErrTaskInvalid):
			respondError(c, http.StatusBadRequest, "任务配置非法")
		default:
			respondError(c, http.StatusInternalServerError, "创建任务失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "任务创建成功", "task": task})
}

// AdminUpdateTask 更新任务
func (a *API) AdminUpdateTask(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	var req taskRequest
	if !bindJSON(c, &req, "任务标识和名称不能为空") {
		return
	}

	task, err := a.tasks.Update(id, taskInputFromRequest(req))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			respondError(c, http.StatusNotFound, "任务不存在")
		case errors.Is(err, service.ErrTaskSlugExists):
			respondError(c, http.StatusBadRequest, "任务标识已存在")
		case errors.Is(err, service.ErrTaskInvalid):
			respondError(c, http.StatusBadRequest, "任务配置非法")
		default:
			respondError(c, http.StatusInternalServerError, "更新任务失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "任务更新成功", "task": task})
}

// AdminDeleteTask 删除任务，历史完成记录保留
func (a *API) AdminDeleteTask(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	if err := a.tasks.Delete(id); err != nil {
		respondError(c, http.StatusInternalServerError, "删除任务失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "任务删除成功"})
}
