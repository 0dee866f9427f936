package store

import (
	"context"
	"errors"
	"fmt"

	"crowdfund-client-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrCallNotFound  = errors.New("call not found")
	ErrCallFinalized = errors.New("call already reached a terminal status")
	ErrInvalidCall   = errors.New("invalid call record")
)

// RecentCallsParams filters the call history. Zero values match everything.
type RecentCallsParams struct {
	Kind   models.CallKind
	Sender string
	Limit  int
}

// DefaultRecentLimit applies when RecentCallsParams.Limit is not positive
const DefaultRecentLimit = 20

// CallJournal defines the contract that every backend (SQLite, Formance, ...) must satisfy.
type CallJournal interface {
	// RecordCall stores the latest state of a call. Recording over a terminal
	// status fails with ErrCallFinalized.
	RecordCall(ctx context.Context, call models.PendingCall) error
	GetCall(ctx context.Context, callId string) (*models.PendingCall, error)
	RecentCalls(ctx context.Context, params RecentCallsParams) ([]models.PendingCall, error)

	// --- Lifecycle ---
	Close()
}

// FundLedger is implemented by journals that keep running fund totals
type FundLedger interface {
	FundTotals(ctx context.Context) (models.FundState, error)
}

// Validate checks the fields every backend requires
func Validate(call models.PendingCall) error {
	switch {
	case call.Id == "":
		return fmt.Errorf("%w: id is required", ErrInvalidCall)
	case call.Kind != models.CallDonate && call.Kind != models.CallWithdraw:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidCall, call.Kind)
	case call.Status == "":
		return fmt.Errorf("%w: status is required", ErrInvalidCall)
	}
	return nil
}

// EffectiveLimit returns the result limit to apply for params
func (p RecentCallsParams) EffectiveLimit() int {
	if p.Limit <= 0 {
		return DefaultRecentLimit
	}
	return p.Limit
}

// Discard is a journal that records nothing
type Discard struct{}

var _ CallJournal = Discard{}

func (Discard) RecordCall(context.Context, models.PendingCall) error { return nil }

func (Discard) GetCall(context.Context, string) (*models.PendingCall, error) {
	return nil, ErrCallNotFound
}

func (Discard) RecentCalls(context.Context, RecentCallsParams) ([]models.PendingCall, error) {
	return nil, nil
}

func (Discard) Close() {}
