package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"crowdfund-client-go/internal/models"
	"crowdfund-client-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// A single connection keeps the in-memory database alive across queries
	db.SetMaxOpenConns(1)

	service := NewServiceWithDB(db)

	// Use the actual schema initialization
	if err := service.InitSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func donateCall(id string, at time.Time) models.PendingCall {
	return models.PendingCall{
		Id:        id,
		Kind:      models.CallDonate,
		Sender:    "0xsender",
		Amount:    decimal.RequireFromString("10.5"),
		Status:    models.CallBuilding,
		TierLabel: models.RarityRare,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestRecordCall_Lifecycle(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	call := donateCall("call1", baseTime)

	if err := service.RecordCall(ctx, call); err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}

	call.Status = models.CallSubmitted
	call.Digest = "Dg1"
	call.UpdatedAt = baseTime.Add(time.Second)
	if err := service.RecordCall(ctx, call); err != nil {
		t.Fatalf("RecordCall (submitted) failed: %v", err)
	}

	call.Status = models.CallConfirmed
	call.ConfirmedAt = baseTime.Add(3 * time.Second)
	call.UpdatedAt = call.ConfirmedAt
	if err := service.RecordCall(ctx, call); err != nil {
		t.Fatalf("RecordCall (confirmed) failed: %v", err)
	}

	got, err := service.GetCall(ctx, "call1")
	if err != nil {
		t.Fatalf("GetCall failed: %v", err)
	}
	if got.Status != models.CallConfirmed {
		t.Errorf("Expected status confirmed, got %s", got.Status)
	}
	if got.Digest != "Dg1" {
		t.Errorf("Expected digest Dg1, got %s", got.Digest)
	}
	if !got.Amount.Equal(call.Amount) {
		t.Errorf("Expected amount %s, got %s", call.Amount, got.Amount)
	}
	if got.TierLabel != models.RarityRare {
		t.Errorf("Expected tier Rare, got %s", got.TierLabel)
	}
	if !got.ConfirmedAt.Equal(call.ConfirmedAt) {
		t.Errorf("Expected confirmed_at %v, got %v", call.ConfirmedAt, got.ConfirmedAt)
	}
	if !got.CreatedAt.Equal(baseTime) {
		t.Errorf("Expected created_at %v, got %v", baseTime, got.CreatedAt)
	}
}

func TestRecordCall_TerminalIsFinal(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	call := donateCall("call2", baseTime)
	call.Status = models.CallFailed
	call.Error = "submission rejected"

	if err := service.RecordCall(ctx, call); err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}

	call.Status = models.CallConfirmed
	err := service.RecordCall(ctx, call)
	if !errors.Is(err, store.ErrCallFinalized) {
		t.Fatalf("Expected ErrCallFinalized, got %v", err)
	}

	got, err := service.GetCall(ctx, "call2")
	if err != nil {
		t.Fatalf("GetCall failed: %v", err)
	}
	if got.Status != models.CallFailed || got.Error != "submission rejected" {
		t.Errorf("Terminal row was rewritten: %+v", got)
	}
}

func TestRecordCall_Invalid(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	err := service.RecordCall(context.Background(), models.PendingCall{Kind: models.CallDonate, Status: models.CallBuilding})
	if !errors.Is(err, store.ErrInvalidCall) {
		t.Errorf("Expected ErrInvalidCall, got %v", err)
	}
}

func TestGetCall_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetCall(context.Background(), "missing")
	if !errors.Is(err, store.ErrCallNotFound) {
		t.Errorf("Expected ErrCallNotFound, got %v", err)
	}
}

func TestRecentCalls_OrderAndFilters(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		call := donateCall(id, baseTime.Add(time.Duration(i)*time.Minute))
		if err := service.RecordCall(ctx, call); err != nil {
			t.Fatalf("RecordCall %s failed: %v", id, err)
		}
	}
	withdraw := models.PendingCall{
		Id:        "w",
		Kind:      models.CallWithdraw,
		Sender:    "0xadmin",
		Amount:    decimal.NewFromInt(120),
		Status:    models.CallSubmitted,
		CreatedAt: baseTime.Add(10 * time.Minute),
		UpdatedAt: baseTime.Add(10 * time.Minute),
	}
	if err := service.RecordCall(ctx, withdraw); err != nil {
		t.Fatalf("RecordCall withdraw failed: %v", err)
	}

	all, err := service.RecentCalls(ctx, store.RecentCallsParams{})
	if err != nil {
		t.Fatalf("RecentCalls failed: %v", err)
	}
	if len(all) != 4 || all[0].Id != "w" || all[3].Id != "a" {
		t.Errorf("Unexpected order: %+v", all)
	}

	donations, err := service.RecentCalls(ctx, store.RecentCallsParams{Kind: models.CallDonate, Limit: 2})
	if err != nil {
		t.Fatalf("RecentCalls (donate) failed: %v", err)
	}
	if len(donations) != 2 || donations[0].Id != "c" || donations[1].Id != "b" {
		t.Errorf("Unexpected donations: %+v", donations)
	}

	admin, err := service.RecentCalls(ctx, store.RecentCallsParams{Sender: "0xadmin"})
	if err != nil {
		t.Fatalf("RecentCalls (sender) failed: %v", err)
	}
	if len(admin) != 1 || admin[0].Kind != models.CallWithdraw {
		t.Errorf("Unexpected sender filter result: %+v", admin)
	}
}

func TestNewService_ValidatesConfig(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  models.DatabaseConfig
	}{
		{"empty path", models.DatabaseConfig{MaxOpenConns: 1, PingTimeout: time.Second}},
		{"no open conns", models.DatabaseConfig{Path: ":memory:", PingTimeout: time.Second}},
		{"negative idle", models.DatabaseConfig{Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: -1, PingTimeout: time.Second}},
		{"no ping timeout", models.DatabaseConfig{Path: ":memory:", MaxOpenConns: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(ctx, tt.cfg); err == nil {
				t.Error("Expected configuration error")
			}
		})
	}
}

func TestNewService_OpensFile(t *testing.T) {
	path := t.TempDir() + "/calls.db"
	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:         path,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	defer service.Close()

	if err := service.RecordCall(context.Background(), donateCall("f1", baseTime)); err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}
}

func TestDataSourceName(t *testing.T) {
	if got := dataSourceName(":memory:"); got != ":memory:" {
		t.Errorf("in-memory DSN = %q, want plain :memory:", got)
	}
	if got := dataSourceName("calls.db"); !strings.HasPrefix(got, "calls.db?_journal_mode=WAL") {
		t.Errorf("file DSN = %q, want WAL mode", got)
	}
}
