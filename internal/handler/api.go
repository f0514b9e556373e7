package handler

import (
	"github.com/fanpulse/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	accounts  *service.AccountService
	ledger    *service.LedgerService
	love      *service.LoveService
	tasks     *service.TaskService
	referrals *service.ReferralService
	posts     *service.PostService
	uploadDir string
	uploadURL string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, rewards service.RewardConfig, notifier service.Notifier, uploadDir, uploadURL string) *API {
	referralService := service.NewReferralService(gdb, rewards, notifier)

	return &API{
		db:        gdb,
		accounts:  service.NewAccountService(gdb, rewards, referralService),
		ledger:    service.NewLedgerService(gdb),
		love:      service.NewLoveService(gdb, rewards, notifier),
		tasks:     service.NewTaskService(gdb),
		referrals: referralService,
		posts:     service.NewPostService(gdb, referralService),
		uploadDir: uploadDir,
		uploadURL: uploadURL,
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}
