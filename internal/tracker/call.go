package tracker

import (
	"context"
	"sync"

	"crowdfund-client-go/internal/models"
)

// State of a single call as it moves through signing and confirmation
type State string

const (
	StateIdle                 State = "idle"
	StateBuilding             State = "building"
	StateAwaitingSignature    State = "awaiting_signature"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateConfirmed            State = "confirmed"
	StateFailed               State = "failed"
)

// IsTerminal reports whether the state ends the call
func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateFailed
}

func (s State) status() models.CallStatus {
	switch s {
	case StateAwaitingConfirmation:
		return models.CallSubmitted
	case StateConfirmed:
		return models.CallConfirmed
	case StateFailed:
		return models.CallFailed
	default:
		return models.CallBuilding
	}
}

// Call is one instance of a donate or withdraw request. Once it reaches
// Confirmed or Failed it never changes again.
type Call struct {
	mutex  sync.RWMutex
	record models.PendingCall
	state  State
	err    error
	done   chan struct{}
}

func newCall(record models.PendingCall) *Call {
	return &Call{
		record: record,
		state:  StateBuilding,
		done:   make(chan struct{}),
	}
}

// State returns the current lifecycle state
func (c *Call) State() State {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.state
}

// Record returns a copy of the call's local record
func (c *Call) Record() models.PendingCall {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.record
}

// Err returns the failure cause, or nil unless the call failed
func (c *Call) Err() error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.err
}

// Done is closed when the call reaches a terminal state
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call resolves or ctx ends. Giving up on the wait
// does not cancel the call itself.
func (c *Call) Wait(ctx context.Context) (models.PendingCall, error) {
	select {
	case <-c.done:
		return c.Record(), c.Err()
	case <-ctx.Done():
		return c.Record(), ctx.Err()
	}
}

// advance moves the call to next and returns the updated record. It is a
// no-op once the call is terminal; waiters are released by finish.
func (c *Call) advance(next State, mutate func(*models.PendingCall), cause error) (models.PendingCall, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.IsTerminal() {
		return c.record, false
	}

	c.state = next
	c.record.Status = next.status()
	if mutate != nil {
		mutate(&c.record)
	}
	if cause != nil {
		c.err = cause
		c.record.Error = cause.Error()
	}
	return c.record, true
}

// finish releases waiters. Called once, after terminal side effects ran.
func (c *Call) finish() {
	close(c.done)
}
