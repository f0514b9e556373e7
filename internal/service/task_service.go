package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fanpulse/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrTaskNotFound 在任务不存在或已停用时返回
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskSlugExists 在任务标识重复时返回
	ErrTaskSlugExists = errors.New("task slug already exists")
	// ErrTaskInvalid 在任务配置非法时返回
	ErrTaskInvalid = errors.New("invalid task configuration")
	// ErrTaskAlreadyCompleted 在重复完成一次性任务时返回
	ErrTaskAlreadyCompleted = errors.New("task already completed")
	// ErrTaskDailyLimit 在当日完成次数达到上限时返回
	ErrTaskDailyLimit = errors.New("task daily limit reached")
)

// TaskService 负责任务定义的后台增删改查与用户侧的任务完成结算。
type TaskService struct {
	db *gorm.DB
}

// TaskFilter 描述后台列表过滤条件
type TaskFilter struct {
	Category   string
	OnlyActive bool
	Search     string
}

// TaskInput 定义创建/更新任务时可配置字段
type TaskInput struct {
	Slug         string
	Name         string
	Category     string
	HeartsReward int64
	IsActive     bool
	IsRepeatable bool
	MaxPerDay    int
}

// NewTaskService 构造 TaskService
func NewTaskService(gdb *gorm.DB) *TaskService {
	return &TaskService{db: gdb}
}

// List 返回任务集合，支持基本筛选
func (s *TaskService) List(filter TaskFilter) ([]db.Task, error) {
	var tasks []db.Task

	query := s.db.Model(&db.Task{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("name LIKE ? OR slug LIKE ?", like, like)
	}

	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

// Get 根据 ID 获取任务
func (s *TaskService) Get(id uint) (*db.Task, error) {
	var task db.Task
	if err := s.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

// Create 新建任务
func (s *TaskService) Create(input TaskInput) (*db.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	task := db.Task{
		Slug:         normalizeSlug(input.Slug),
		Name:         strings.TrimSpace(input.Name),
		Category:     strings.TrimSpace(input.Category),
		HeartsReward: input.HeartsReward,
		IsActive:     input.IsActive,
		IsRepeatable: input.IsRepeatable,
		MaxPerDay:    input.MaxPerDay,
	}

	var existing db.Task
	if err := s.db.Where("slug = ?", task.Slug).First(&existing).Error; err == nil {
		return nil, ErrTaskSlugExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check task slug: %w", err)
	}

	if err := s.db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

// Update 更新任务
func (s *TaskService) Update(id uint, input TaskInput) (*db.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	var existing db.Task
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}

	slug := normalizeSlug(input.Slug)
	if slug != existing.Slug {
		var conflict db.Task
		if err := s.db.Where("slug = ? AND id <> ?", slug, id).First(&conflict).Error; err == nil {
			return nil, ErrTaskSlugExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check task slug: %w", err)
		}
	}

	existing.Slug = slug
	existing.Name = strings.TrimSpace(input.Name)
	existing.Category = strings.TrimSpace(input.Category)
	existing.HeartsReward = input.HeartsReward
	existing.IsActive = input.IsActive
	existing.IsRepeatable = input.IsRepeatable
	existing.MaxPerDay = input.MaxPerDay

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &existing, nil
}

// Delete 删除任务，历史完成记录保留。
// 物理删除：软删除的行会占住 slug 唯一键，下架后的标识无法再次启用。
func (s *TaskService) Delete(id uint) error {
	if err := s.db.Unscoped().Delete(&db.Task{}, id).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// CompletionResult 描述一次任务完成的结算结果。
type CompletionResult struct {
	Task         db.Task
	HeartsEarned int64
	NewBalance   int64
}

// Complete 结算一次任务完成：查重、限频、落完成记录并入账。
// 全程持有用户行锁，同一用户的并发重复提交会被串行化后拒绝。
func (s *TaskService) Complete(userID uint, slug string, now time.Time) (*CompletionResult, error) {
	var result *CompletionResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var actor db.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&actor, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock acting user: %w", err)
		}

		var task db.Task
		if err := tx.Where("slug = ? AND is_active = ?", normalizeSlug(slug), true).
			First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("get task: %w", err)
		}

		var count int64
		if !task.IsRepeatable {
			if err := tx.Model(&db.TaskCompletion{}).
				Where("user_id = ? AND task_id = ?", userID, task.ID).
				Count(&count).Error; err != nil {
				return fmt.Errorf("count completions: %w", err)
			}
			if count > 0 {
				return ErrTaskAlreadyCompleted
			}
		} else if task.MaxPerDay > 0 {
			today := normalizeToDate(now)
			if err := tx.Model(&db.TaskCompletion{}).
				Where("user_id = ? AND task_id = ?", userID, task.ID).
				Where("completed_at >= ? AND completed_at < ?", today, today.AddDate(0, 0, 1)).
				Count(&count).Error; err != nil {
				return fmt.Errorf("count today completions: %w", err)
			}
			if int(count) >= task.MaxPerDay {
				return ErrTaskDailyLimit
			}
		}

		completion := db.TaskCompletion{
			UserID:       userID,
			TaskID:       task.ID,
			CompletedAt:  now,
			HeartsEarned: task.HeartsReward,
		}
		if err := tx.Create(&completion).Error; err != nil {
			return fmt.Errorf("create completion: %w", err)
		}

		newBalance := actor.HeartBalance
		if task.HeartsReward > 0 {
			mutation, err := mutateBalance(tx, userID, task.HeartsReward, db.TxTypeEarned,
				fmt.Sprintf("完成任务 %s", task.Slug))
			if err != nil {
				return err
			}
			newBalance = mutation.NewBalance
		}

		result = &CompletionResult{
			Task:         task,
			HeartsEarned: task.HeartsReward,
			NewBalance:   newBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func validateTaskInput(input TaskInput) error {
	if strings.TrimSpace(input.Slug) == "" {
		return fmt.Errorf("%w: slug is required", ErrTaskInvalid)
	}
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrTaskInvalid)
	}
	if input.HeartsReward < 0 {
		return fmt.Errorf("%w: reward must not be negative", ErrTaskInvalid)
	}
	if input.MaxPerDay < 0 {
		return fmt.Errorf("%w: max per day must not be negative", ErrTaskInvalid)
	}
	if !input.IsRepeatable && input.MaxPerDay > 0 {
		return fmt.Errorf("%w: daily limit only applies to repeatable tasks", ErrTaskInvalid)
	}
	return nil
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
