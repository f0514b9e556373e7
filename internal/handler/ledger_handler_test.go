package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/fanpulse/internal/db"
)

func TestGetBalanceAndHistory(t *testing.T) {
	gdb, cleanup := setupHandlerTestDB(t)
	t.Cleanup(cleanup)

	api := newTestAPI(gdb)
	user := seedHandlerUser(t, gdb, "alice", 80)

	router := newSessionRouter(user.ID, false)
	router.GET("/api/me/balance", api.GetBalance)
	router.GET("/api/me/transactions", api.GetHistory)

	recorder := performJSON(t, router, http.MethodGet, "/api/me/balance", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	payload := decodeJSON(t, recorder)
	if payload["balance"].(float64) != 80 {
		t.Fatalf("expected balance 80, got %v", payload["balance"])
	}

	recorder = performJSON(t, router, http.MethodGet, "/api/me/transactions?page=1&per_page=10", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	payload = decodeJSON(t, recorder)
	if payload["total"].(float64) != 1 {
		t.Fatalf("expected 1 transaction, got %v", payload["total"])
	}
	transactions := payload["transactions"].([]interface{})
	record := transactions[0].(map[string]interface{})
	if record["amount"].(float64) != 80 || record["type"] != db.TxTypeBonus {
		t.Fatalf("unexpected transaction: %v", record)
	}
}

func TestAdminAdjustBalanceHandler(t *testing.T) {
	gdb, cleanup := setupHandlerTestDB(t)
	t.Cleanup(cleanup)

	api := newTestAPI(gdb)
	admin := seedHandlerUser(t, gdb, "root", 0)
	user := seedHandlerUser(t, gdb, "alice", 10)

	router := newSessionRouter(admin.ID, true)
	router.POST("/admin/api/ledger/adjust", api.AdminAdjustBalance)

	recorder := performJSON(t, router, http.MethodPost, "/admin/api/ledger/adjust", map[string]interface{}{
		"user_id": user.ID,
		"amount":  15,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeJSON(t, recorder)
	if payload["new_balance"].(float64) != 25 {
		t.Fatalf("expected new_balance 25, got %v", payload["new_balance"])
	}

	recorder = performJSON(t, router, http.MethodPost, "/admin/api/ledger/adjust", map[string]interface{}{
		"user_id": user.ID,
		"amount":  -100,
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for negative result, got %d", recorder.Code)
	}

	recorder = performJSON(t, router, http.MethodPost, "/admin/api/ledger/adjust", map[string]interface{}{
		"user_id": 9999,
		"amount":  10,
	})
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown user, got %d", recorder.Code)
	}
}

func TestAdminReconcileHandler(t *testing.T) {
	gdb, cleanup := setupHandlerTestDB(t)
	t.Cleanup(cleanup)

	api := newTestAPI(gdb)
	admin := seedHandlerUser(t, gdb, "root", 0)
	user := seedHandlerUser(t, gdb, "alice", 40)

	router := newSessionRouter(admin.ID, true)
	router.GET("/admin/api/ledger/:id/reconcile", api.AdminReconcile)

	recorder := performJSON(t, router, http.MethodGet,
		fmt.Sprintf("/admin/api/ledger/%d/reconcile", user.ID), nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	payload := decodeJSON(t, recorder)
	if payload["consistent"].(bool) != true {
		t.Fatalf("expected consistent ledger, got %v", payload)
	}

	// 人为制造账不平
	if err := gdb.Model(&db.User{}).Where("id = ?", user.ID).
		UpdateColumn("heart_balance", 99).Error; err != nil {
		t.Fatalf("failed to corrupt balance: %v", err)
	}

	recorder = performJSON(t, router, http.MethodGet,
		fmt.Sprintf("/admin/api/ledger/%d/reconcile", user.ID), nil)
	payload = decodeJSON(t, recorder)
	if payload["consistent"].(bool) {
		t.Fatal("expected inconsistent ledger after manual corruption")
	}
	if payload["ledger_sum"].(float64) != 40 {
		t.Fatalf("expected ledger_sum 40, got %v", payload["ledger_sum"])
	}
}
