/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package tracker drives a single donate or withdraw call through signing,
// submission and finality, allowing at most one call in flight.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"crowdfund-client-go/internal/builder"
	"crowdfund-client-go/internal/iotarpc"
	"crowdfund-client-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultRefreshDelay gives the indexer time to catch up after finality
const DefaultRefreshDelay = time.Second

var (
	ErrCallInFlight        = errors.New("another call is already in flight")
	ErrSubmissionRejected  = errors.New("submission rejected")
	ErrConfirmationTimeout = errors.New("confirmation timed out")
	ErrConfirmation        = errors.New("confirmation failed")
)

const (
	msgInvalidAmount   = "Invalid donation amount."
	msgDonateFailed    = "Donation Failed."
	msgWithdrawOK      = "Withdraw Successful!"
	msgWithdrawFailed  = "Withdraw Failed."
	msgDonateOKPattern = "Donation Sent! You got %s NFT!"
)

// Signer hands a descriptor to the wallet and returns the transaction digest
// once the wallet has submitted it.
type Signer interface {
	SignAndExecute(ctx context.Context, descriptor *builder.Descriptor) (string, error)
}

// Finalizer resolves when the ledger has confirmed a transaction
type Finalizer interface {
	WaitForTransaction(ctx context.Context, digest string) error
}

// Refresher is the part of the state synchronizer a call talks to
type Refresher interface {
	ScheduleRefresh(delay time.Duration)
	AddPending(call models.PendingCall)
	ConfirmPending(callId string, at time.Time)
	DropPending(callId string)
}

// Notifier receives the user-facing outcome of each call
type Notifier interface {
	Success(message, digest string) models.Notification
	Error(message string) models.Notification
}

// TransitionFunc observes every state change of every call
type TransitionFunc func(call models.PendingCall, state State)

// Config contains the ledger object ids calls are built against
type Config struct {
	PackageId    string
	FundId       string
	RefreshDelay time.Duration
}

// Tracker owns the single active call slot
type Tracker struct {
	packageId    string
	fundId       string
	refreshDelay time.Duration

	signer    Signer
	finalizer Finalizer
	refresher Refresher
	notifier  Notifier

	mutex       sync.Mutex
	active      *Call
	transitions []TransitionFunc

	now func() time.Time
}

// New creates a tracker. refresher and notifier may be nil.
func New(cfg Config, signer Signer, finalizer Finalizer, refresher Refresher, notifier Notifier) *Tracker {
	delay := cfg.RefreshDelay
	if delay <= 0 {
		delay = DefaultRefreshDelay
	}
	return &Tracker{
		packageId:    cfg.PackageId,
		fundId:       cfg.FundId,
		refreshDelay: delay,
		signer:       signer,
		finalizer:    finalizer,
		refresher:    refresher,
		notifier:     notifier,
		now:          time.Now,
	}
}

// OnTransition registers fn to observe call state changes. Register before
// starting calls.
func (t *Tracker) OnTransition(fn TransitionFunc) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.transitions = append(t.transitions, fn)
}

// InFlight reports whether a call currently holds the slot
func (t *Tracker) InFlight() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.active != nil && !t.active.State().IsTerminal()
}

// Active returns the most recent call, or nil if none was started
func (t *Tracker) Active() *Call {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.active
}

// State returns the active call's state, or Idle when nothing is in flight
func (t *Tracker) State() State {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.active == nil || t.active.State().IsTerminal() {
		return StateIdle
	}
	return t.active.State()
}

// Donate starts a donation of amount from sender. The returned call resolves
// asynchronously; an invalid amount fails before anything is submitted.
func (t *Tracker) Donate(ctx context.Context, sender, amount string) (*Call, error) {
	// Amount, tier and payment all come from the one parse in the builder
	descriptor, buildErr := builder.Donate(t.packageId, amount, t.fundId)

	record := models.PendingCall{
		Kind:   models.CallDonate,
		Sender: sender,
		Amount: decimal.Zero,
	}
	if buildErr == nil {
		record.Amount = models.FromBaseUnits(descriptor.Payment())
		record.TierLabel = builder.TierLabel(record.Amount)
	}

	call, err := t.acquire(record)
	if err != nil {
		return nil, err
	}

	if buildErr != nil {
		t.fail(call, buildErr, msgInvalidAmount)
		return nil, buildErr
	}

	t.submit(ctx, call, descriptor.WithSender(sender))
	return call, nil
}

// Withdraw starts a withdrawal of the whole fund balance using the admin
// capability. balance is the last observed balance, kept for display.
func (t *Tracker) Withdraw(ctx context.Context, sender, adminCapId string, balance decimal.Decimal) (*Call, error) {
	call, err := t.acquire(models.PendingCall{
		Kind:   models.CallWithdraw,
		Sender: sender,
		Amount: balance,
	})
	if err != nil {
		return nil, err
	}

	descriptor := builder.Withdraw(t.packageId, adminCapId, t.fundId)
	t.submit(ctx, call, descriptor.WithSender(sender))
	return call, nil
}

// acquire claims the call slot and creates a call in the Building state
func (t *Tracker) acquire(record models.PendingCall) (*Call, error) {
	t.mutex.Lock()
	if t.active != nil && !t.active.State().IsTerminal() {
		activeId := t.active.Record().Id
		t.mutex.Unlock()
		zap.L().Warn("Rejected call while another is in flight",
			zap.String("kind", string(record.Kind)),
			zap.String("active_call_id", activeId))
		return nil, ErrCallInFlight
	}

	now := t.now()
	record.Id = uuid.New().String()
	record.Status = models.CallBuilding
	record.CreatedAt = now
	record.UpdatedAt = now

	call := newCall(record)
	t.active = call
	t.mutex.Unlock()

	zap.L().Info("Building call",
		zap.String("call_id", record.Id),
		zap.String("kind", string(record.Kind)),
		zap.String("sender", record.Sender),
		zap.String("amount", record.Amount.String()))

	t.emit(record, StateBuilding)
	return call, nil
}

func (t *Tracker) submit(ctx context.Context, call *Call, descriptor *builder.Descriptor) {
	record, ok := call.advance(StateAwaitingSignature, t.touch, nil)
	if !ok {
		return
	}
	t.emit(record, StateAwaitingSignature)

	go t.run(ctx, call, descriptor)
}

func (t *Tracker) run(ctx context.Context, call *Call, descriptor *builder.Descriptor) {
	kind := call.Record().Kind

	digest, err := t.signer.SignAndExecute(ctx, descriptor)
	if err == nil && digest == "" {
		err = errors.New("wallet returned an empty digest")
	}
	if err != nil {
		t.fail(call, fmt.Errorf("%w: %w", ErrSubmissionRejected, err), failureMessage(kind))
		return
	}

	record, ok := call.advance(StateAwaitingConfirmation, func(r *models.PendingCall) {
		t.touch(r)
		r.Digest = digest
	}, nil)
	if !ok {
		return
	}
	t.emit(record, StateAwaitingConfirmation)
	if t.refresher != nil {
		t.refresher.AddPending(record)
	}

	zap.L().Info("Call submitted, waiting for finality",
		zap.String("call_id", record.Id),
		zap.String("digest", digest))

	// The transaction is already on its way; only the Finalizer's own
	// timeout ends the wait.
	if err := t.finalizer.WaitForTransaction(context.WithoutCancel(ctx), digest); err != nil {
		if errors.Is(err, iotarpc.ErrFinalityTimeout) || errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrConfirmationTimeout, err)
		} else {
			err = fmt.Errorf("%w: %w", ErrConfirmation, err)
		}
		if t.refresher != nil {
			t.refresher.DropPending(record.Id)
		}
		t.fail(call, err, failureMessage(kind))
		return
	}

	confirmedAt := t.now()
	record, ok = call.advance(StateConfirmed, func(r *models.PendingCall) {
		r.ConfirmedAt = confirmedAt
		r.UpdatedAt = confirmedAt
	}, nil)
	if !ok {
		return
	}

	zap.L().Info("Call confirmed",
		zap.String("call_id", record.Id),
		zap.String("kind", string(kind)),
		zap.String("digest", digest))

	t.emit(record, StateConfirmed)
	if t.refresher != nil {
		t.refresher.ConfirmPending(record.Id, confirmedAt)
		t.refresher.ScheduleRefresh(t.refreshDelay)
	}
	if t.notifier != nil {
		t.notifier.Success(successMessage(record), digest)
	}
	call.finish()
}

func (t *Tracker) fail(call *Call, cause error, message string) {
	record, ok := call.advance(StateFailed, t.touch, cause)
	if !ok {
		return
	}

	zap.L().Error("Call failed",
		zap.String("call_id", record.Id),
		zap.String("kind", string(record.Kind)),
		zap.String("digest", record.Digest),
		zap.Error(cause))

	t.emit(record, StateFailed)
	if t.notifier != nil {
		t.notifier.Error(message)
	}
	call.finish()
}

func (t *Tracker) touch(r *models.PendingCall) {
	r.UpdatedAt = t.now()
}

func (t *Tracker) emit(record models.PendingCall, state State) {
	t.mutex.Lock()
	transitions := append([]TransitionFunc(nil), t.transitions...)
	t.mutex.Unlock()

	for _, fn := range transitions {
		fn(record, state)
	}
}

func successMessage(record models.PendingCall) string {
	if record.Kind == models.CallWithdraw {
		return msgWithdrawOK
	}
	return fmt.Sprintf(msgDonateOKPattern, record.TierLabel)
}

func failureMessage(kind models.CallKind) string {
	if kind == models.CallWithdraw {
		return msgWithdrawFailed
	}
	return msgDonateFailed
}
