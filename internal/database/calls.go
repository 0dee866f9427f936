package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"crowdfund-client-go/internal/models"
	"crowdfund-client-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// RecordCall inserts a call or updates its latest transition. Terminal rows
// are never rewritten.
func (s *Service) RecordCall(ctx context.Context, call models.PendingCall) error {
	if err := store.Validate(call); err != nil {
		return err
	}

	var confirmedAt sql.NullTime
	if !call.ConfirmedAt.IsZero() {
		confirmedAt = sql.NullTime{Time: call.ConfirmedAt.UTC(), Valid: true}
	}
	updatedAt := call.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, queryUpsertCall,
		call.Id,
		string(call.Kind),
		call.Sender,
		call.Amount.String(),
		string(call.Status),
		call.Digest,
		string(call.TierLabel),
		call.Error,
		call.CreatedAt.UTC(),
		confirmedAt,
		updatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record call %s: %w", call.Id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", store.ErrCallFinalized, call.Id)
	}

	zap.L().Debug("Call recorded",
		zap.String("call_id", call.Id),
		zap.String("status", string(call.Status)),
		zap.String("digest", call.Digest))
	return nil
}

func (s *Service) GetCall(ctx context.Context, callId string) (*models.PendingCall, error) {
	call, err := scanCall(s.db.QueryRowContext(ctx, queryGetCall, callId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrCallNotFound, callId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get call %s: %w", callId, err)
	}
	return call, nil
}

func (s *Service) RecentCalls(ctx context.Context, params store.RecentCallsParams) ([]models.PendingCall, error) {
	kind := string(params.Kind)
	rows, err := s.db.QueryContext(ctx, queryRecentCalls,
		kind, kind, params.Sender, params.Sender, params.EffectiveLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to query recent calls: %w", err)
	}
	defer rows.Close()

	var calls []models.PendingCall
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		calls = append(calls, *call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate calls: %w", err)
	}
	return calls, nil
}

func scanCall(row rowScanner) (*models.PendingCall, error) {
	var (
		call        models.PendingCall
		kind        string
		amount      string
		status      string
		tier        string
		confirmedAt sql.NullTime
	)

	err := row.Scan(
		&call.Id,
		&kind,
		&call.Sender,
		&amount,
		&status,
		&call.Digest,
		&tier,
		&call.Error,
		&call.CreatedAt,
		&confirmedAt,
		&call.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	call.Kind = models.CallKind(kind)
	call.Status = models.CallStatus(status)
	call.TierLabel = models.Rarity(tier)
	if call.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	if confirmedAt.Valid {
		call.ConfirmedAt = confirmedAt.Time
	}
	return &call, nil
}
