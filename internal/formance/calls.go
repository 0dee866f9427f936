package formance

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"crowdfund-client-go/internal/models"
	"crowdfund-client-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// fundAsset is IOTA in Formance UMN notation (9 decimals, base units)
const fundAsset = "IOTA/9"

// ---------------------------------------------------------------------------
// Numscript templates. All metadata is set inside the script via
// set_tx_meta() so the Formance transaction is fully self-describing.
// ---------------------------------------------------------------------------

const numscriptDonation = `vars {
  monetary $payment
  account $sender
  account $fund_id
  string $call_id
  string $digest
  string $tier_label
  string $created_at
}

send $payment (
  source = @donors:$sender allowing unbounded overdraft
  destination = @fund:$fund_id
)

set_tx_meta("event_type", "donation_confirmed")
set_tx_meta("kind", "donate")
set_tx_meta("call_id", $call_id)
set_tx_meta("sender", $sender)
set_tx_meta("digest", $digest)
set_tx_meta("tier_label", $tier_label)
set_tx_meta("created_at", $created_at)
`

const numscriptWithdrawal = `vars {
  monetary $payment
  account $sender
  account $fund_id
  string $call_id
  string $digest
  string $created_at
}

send $payment (
  source = @fund:$fund_id allowing unbounded overdraft
  destination = @admins:$sender
)

set_tx_meta("event_type", "withdrawal_confirmed")
set_tx_meta("kind", "withdraw")
set_tx_meta("call_id", $call_id)
set_tx_meta("sender", $sender)
set_tx_meta("digest", $digest)
set_tx_meta("created_at", $created_at)
`

// RecordCall posts a confirmed call. Non-terminal and failed transitions
// moved no funds and are not recorded.
func (s *Service) RecordCall(ctx context.Context, call models.PendingCall) error {
	if err := store.Validate(call); err != nil {
		return err
	}
	if call.Status != models.CallConfirmed {
		zap.L().Debug("Skipping unsettled call transition",
			zap.String("call_id", call.Id),
			zap.String("status", string(call.Status)))
		return nil
	}

	postTx := shared.V2PostTransaction{
		Reference: strPtr(call.Id),
		Script: &shared.V2PostTransactionScript{
			Plain: scriptFor(call.Kind),
			Vars:  s.scriptVars(call),
		},
	}
	if !call.ConfirmedAt.IsZero() {
		ts := call.ConfirmedAt.UTC()
		postTx.Timestamp = &ts
	}

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            s.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			return fmt.Errorf("%w: %s", store.ErrCallFinalized, call.Id)
		}
		return fmt.Errorf("error recording %s call: %w", call.Kind, err)
	}

	zap.L().Info("Confirmed call recorded in Formance",
		zap.String("call_id", call.Id),
		zap.String("kind", string(call.Kind)),
		zap.String("amount", call.Amount.String()),
		zap.String("digest", call.Digest))
	return nil
}

func (s *Service) GetCall(ctx context.Context, callId string) (*models.PendingCall, error) {
	pageSize := int64(1)
	resp, err := s.client.Ledger.V2.ListTransactions(ctx, operations.V2ListTransactionsRequest{
		Ledger:   s.ledger,
		PageSize: &pageSize,
		RequestBody: map[string]any{
			"$match": map[string]any{
				"metadata[call_id]": callId,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find call %s: %w", callId, err)
	}
	if len(resp.V2TransactionsCursorResponse.Cursor.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrCallNotFound, callId)
	}

	call := callFromTransaction(resp.V2TransactionsCursorResponse.Cursor.Data[0])
	return &call, nil
}

func (s *Service) RecentCalls(ctx context.Context, params store.RecentCallsParams) ([]models.PendingCall, error) {
	pageSize := int64(params.EffectiveLimit())
	resp, err := s.client.Ledger.V2.ListTransactions(ctx, operations.V2ListTransactionsRequest{
		Ledger:      s.ledger,
		PageSize:    &pageSize,
		RequestBody: recentCallsFilter(params),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	var calls []models.PendingCall
	for _, tx := range resp.V2TransactionsCursorResponse.Cursor.Data {
		if tx.Metadata["call_id"] == "" {
			continue
		}
		calls = append(calls, callFromTransaction(tx))
	}
	return calls, nil
}

// ---------- helpers ----------

func scriptFor(kind models.CallKind) string {
	if kind == models.CallWithdraw {
		return numscriptWithdrawal
	}
	return numscriptDonation
}

func (s *Service) scriptVars(call models.PendingCall) map[string]string {
	vars := map[string]string{
		"payment":    fmt.Sprintf("%s %s", fundAsset, baseUnits(call.Amount)),
		"sender":     call.Sender,
		"fund_id":    s.fundId,
		"call_id":    call.Id,
		"digest":     call.Digest,
		"created_at": call.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if call.Kind == models.CallDonate {
		vars["tier_label"] = string(call.TierLabel)
	}
	return vars
}

// recentCallsFilter builds the ListTransactions query body; nil matches all
func recentCallsFilter(params store.RecentCallsParams) map[string]any {
	var clauses []any
	if params.Kind != "" {
		clauses = append(clauses, map[string]any{"$match": map[string]any{"metadata[kind]": string(params.Kind)}})
	}
	if params.Sender != "" {
		clauses = append(clauses, map[string]any{"$match": map[string]any{"metadata[sender]": params.Sender}})
	}

	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0].(map[string]any)
	default:
		return map[string]any{"$and": clauses}
	}
}

func callFromTransaction(tx shared.V2Transaction) models.PendingCall {
	call := models.PendingCall{
		Id:          tx.Metadata["call_id"],
		Kind:        models.CallKind(tx.Metadata["kind"]),
		Sender:      tx.Metadata["sender"],
		Status:      models.CallConfirmed,
		Digest:      tx.Metadata["digest"],
		TierLabel:   models.Rarity(tx.Metadata["tier_label"]),
		ConfirmedAt: tx.Timestamp,
		UpdatedAt:   tx.Timestamp,
	}
	if created, err := time.Parse(time.RFC3339Nano, tx.Metadata["created_at"]); err == nil {
		call.CreatedAt = created
	} else {
		call.CreatedAt = tx.Timestamp
	}

	for _, p := range tx.Postings {
		if p.Asset == fundAsset {
			call.Amount = bigIntToDecimal(p.Amount)
			break
		}
	}
	return call
}

// baseUnits renders a display amount as an integer base-unit string
func baseUnits(amount decimal.Decimal) string {
	return amount.Shift(models.BaseUnitDecimals).Truncate(0).BigInt().String()
}

// bigIntToDecimal converts a *big.Int in base units to a display decimal.
func bigIntToDecimal(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -models.BaseUnitDecimals)
}

func strPtr(s string) *string { return &s }
