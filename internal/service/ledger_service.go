package service

import (
	"errors"
	"fmt"

	"github.com/fanpulse/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrUserNotFound 在指定用户不存在时返回
	ErrUserNotFound = errors.New("user not found")
	// ErrInsufficientBalance 在扣减会导致余额为负时返回
	ErrInsufficientBalance = errors.New("insufficient heart balance")
	// ErrInvalidTxType 在流水类型不在枚举内时返回
	ErrInvalidTxType = errors.New("invalid transaction type")
)

// LedgerService 是爱心余额的唯一写入口。
// 其余服务只保证以正确的次数调用它，数值一致性由这里兜底。
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService 构造 LedgerService
func NewLedgerService(gdb *gorm.DB) *LedgerService {
	return &LedgerService{db: gdb}
}

// MutationResult 返回变更后的余额。
type MutationResult struct {
	NewBalance int64
}

// Mutate 以独立事务执行一次余额变更并追加一条流水。
// amount 为正表示入账，为负表示扣减；扣减不足额时整体拒绝，不落任何数据。
func (s *LedgerService) Mutate(userID uint, amount int64, txType, description string) (*MutationResult, error) {
	var result *MutationResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		r, err := mutateBalance(tx, userID, amount, txType, description)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// mutateBalance 在调用方事务内执行余额变更。
// 通过对用户行加 UPDATE 锁串行化同一用户的并发变更，避免丢失更新。
func mutateBalance(tx *gorm.DB, userID uint, amount int64, txType, description string) (*MutationResult, error) {
	switch txType {
	case db.TxTypeEarned, db.TxTypeSpent, db.TxTypeBonus, db.TxTypeAdmin:
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidTxType, txType)
	}

	var user db.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lock user balance: %w", err)
	}

	newBalance := user.HeartBalance + amount
	if newBalance < 0 {
		return nil, ErrInsufficientBalance
	}

	if err := tx.Model(&db.User{}).
		Where("id = ?", user.ID).
		UpdateColumn("heart_balance", newBalance).Error; err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	record := db.HeartTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: description,
		Balance:     newBalance,
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	return &MutationResult{NewBalance: newBalance}, nil
}

// BalanceOf 返回用户当前余额。
func (s *LedgerService) BalanceOf(userID uint) (int64, error) {
	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("get user: %w", err)
	}
	return user.HeartBalance, nil
}

// HistoryResult 聚合分页后的流水数据。
type HistoryResult struct {
	Transactions []db.HeartTransaction
	Total        int64
	Page         int
	PerPage      int
}

// History 按时间倒序返回用户的流水记录。
func (s *LedgerService) History(userID uint, page, perPage int) (*HistoryResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int64
	if err := s.db.Model(&db.HeartTransaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	var transactions []db.HeartTransaction
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return &HistoryResult{
		Transactions: transactions,
		Total:        total,
		Page:         page,
		PerPage:      perPage,
	}, nil
}

// ReconcileResult 描述余额与流水合计的对账结果。
type ReconcileResult struct {
	UserID     uint
	Balance    int64
	LedgerSum  int64
	Consistent bool
}

// Reconcile 校验用户余额是否等于全部流水之和，供后台审计使用。
func (s *LedgerService) Reconcile(userID uint) (*ReconcileResult, error) {
	balance, err := s.BalanceOf(userID)
	if err != nil {
		return nil, err
	}

	var sum struct {
		Total int64
	}
	if err := s.db.Model(&db.HeartTransaction{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Scan(&sum).Error; err != nil {
		return nil, fmt.Errorf("sum transactions: %w", err)
	}

	return &ReconcileResult{
		UserID:     userID,
		Balance:    balance,
		LedgerSum:  sum.Total,
		Consistent: balance == sum.Total,
	}, nil
}

// AdminAdjust 由管理员手工调整余额，走 admin 类型流水留痕。
func (s *LedgerService) AdminAdjust(userID uint, amount int64, description string) (*MutationResult, error) {
	return s.Mutate(userID, amount, db.TxTypeAdmin, description)
}
