package service

import (
	"errors"
	"testing"
	"time"

	"github.com/fanpulse/internal/db"
)

func referralTestConfig() RewardConfig {
	return RewardConfig{
		ReferredReward:  30,
		ReferrerReward:  50,
		StartingBalance: 50,
	}
}

func TestReferralRegisterLinksUsers(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	referrer := createTestUser(t, "veteran", 0)
	newcomer := createTestUser(t, "newcomer", 0)

	svc := NewReferralService(db.DB, referralTestConfig(), nil)

	if err := svc.Register(newcomer.ID, referrer.ReferralCode); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	var reloaded db.User
	if err := db.DB.First(&reloaded, newcomer.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if reloaded.ReferredBy == nil || *reloaded.ReferredBy != referrer.ID {
		t.Fatalf("expected referred_by %d, got %v", referrer.ID, reloaded.ReferredBy)
	}

	var referral db.Referral
	if err := db.DB.Where("referred_id = ?", newcomer.ID).First(&referral).Error; err != nil {
		t.Fatalf("expected a referral row: %v", err)
	}
	if referral.Status != db.ReferralStatusPending {
		t.Fatalf("expected pending status, got %q", referral.Status)
	}
	if referral.ReferrerID != referrer.ID {
		t.Fatalf("expected referrer %d, got %d", referrer.ID, referral.ReferrerID)
	}
}

func TestReferralRegisterRejections(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	referrer := createTestUser(t, "veteran", 0)
	svc := NewReferralService(db.DB, referralTestConfig(), nil)

	if err := svc.Register(referrer.ID, referrer.ReferralCode); !errors.Is(err, ErrSelfReferral) {
		t.Fatalf("expected ErrSelfReferral, got %v", err)
	}
	if err := svc.Register(referrer.ID, "nope1234"); !errors.Is(err, ErrReferralCodeInvalid) {
		t.Fatalf("expected ErrReferralCodeInvalid, got %v", err)
	}
	if err := svc.Register(referrer.ID, "   "); !errors.Is(err, ErrReferralCodeInvalid) {
		t.Fatalf("expected ErrReferralCodeInvalid for blank code, got %v", err)
	}
	if err := svc.Register(9999, referrer.ReferralCode); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestReferralCompletePaysBothGenerations(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	referrer := createTestUser(t, "veteran", 0)
	newcomer := createTestUser(t, "newcomer", 0)

	notifier := &recordingNotifier{}
	svc := NewReferralService(db.DB, referralTestConfig(), notifier)

	if err := svc.Register(newcomer.ID, referrer.ReferralCode); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	payouts, err := svc.Complete(newcomer.ID, now)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if len(payouts) != 2 {
		t.Fatalf("expected 2 payouts, got %d", len(payouts))
	}
	if payouts[0].UserID != newcomer.ID || payouts[0].Amount != 30 || payouts[0].Generation != 0 {
		t.Fatalf("unexpected generation-0 payout: %+v", payouts[0])
	}
	if payouts[1].UserID != referrer.ID || payouts[1].Amount != 50 || payouts[1].Generation != 1 {
		t.Fatalf("unexpected generation-1 payout: %+v", payouts[1])
	}

	ledger := NewLedgerService(db.DB)
	if balance, _ := ledger.BalanceOf(newcomer.ID); balance != 30 {
		t.Fatalf("expected newcomer balance 30, got %d", balance)
	}
	if balance, _ := ledger.BalanceOf(referrer.ID); balance != 50 {
		t.Fatalf("expected referrer balance 50, got %d", balance)
	}

	var logCount int64
	db.DB.Model(&db.ReferralRewardLog{}).Count(&logCount)
	if logCount != 2 {
		t.Fatalf("expected 2 reward log rows, got %d", logCount)
	}

	var referral db.Referral
	if err := db.DB.Where("referred_id = ?", newcomer.ID).First(&referral).Error; err != nil {
		t.Fatalf("failed to reload referral: %v", err)
	}
	if referral.Status != db.ReferralStatusCompleted || referral.CompletedAt == nil {
		t.Fatalf("expected completed referral with timestamp, got %+v", referral)
	}

	if len(notifier.events) != 2 {
		t.Fatalf("expected 2 notifications, got %v", notifier.events)
	}
}

func TestReferralCompleteFiresOnce(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	referrer := createTestUser(t, "veteran", 0)
	newcomer := createTestUser(t, "newcomer", 0)

	svc := NewReferralService(db.DB, referralTestConfig(), nil)

	if err := svc.Register(newcomer.ID, referrer.ReferralCode); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if _, err := svc.Complete(newcomer.ID, time.Now()); err != nil {
		t.Fatalf("first Complete returned error: %v", err)
	}

	payouts, err := svc.Complete(newcomer.ID, time.Now())
	if err != nil {
		t.Fatalf("second Complete returned error: %v", err)
	}
	if len(payouts) != 0 {
		t.Fatalf("second completion must be a no-op, got %v", payouts)
	}

	if balance, _ := NewLedgerService(db.DB).BalanceOf(referrer.ID); balance != 50 {
		t.Fatalf("referrer must be paid exactly once, got %d", balance)
	}
}

func TestReferralCompleteWithoutPendingIsNoOp(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	organic := createTestUser(t, "organic", 0)
	svc := NewReferralService(db.DB, referralTestConfig(), nil)

	payouts, err := svc.Complete(organic.ID, time.Now())
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if len(payouts) != 0 {
		t.Fatalf("expected no payouts for organic user, got %v", payouts)
	}
}

func TestReferralStatusOf(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	referrer := createTestUser(t, "veteran", 0)
	first := createTestUser(t, "first", 0)
	second := createTestUser(t, "second", 0)

	svc := NewReferralService(db.DB, referralTestConfig(), nil)

	if err := svc.Register(first.ID, referrer.ReferralCode); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := svc.Register(second.ID, referrer.ReferralCode); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, err := svc.Complete(first.ID, time.Now()); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	status, err := svc.StatusOf(referrer.ID)
	if err != nil {
		t.Fatalf("StatusOf returned error: %v", err)
	}
	if status.Code != referrer.ReferralCode {
		t.Fatalf("expected code %q, got %q", referrer.ReferralCode, status.Code)
	}
	if status.InvitedCount != 2 || status.CompletedCount != 1 {
		t.Fatalf("expected 2 invited / 1 completed, got %d/%d", status.InvitedCount, status.CompletedCount)
	}
}
