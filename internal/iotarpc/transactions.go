package iotarpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ExecutionStatus is the effects status of an executed transaction
type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// TransactionEffects is the subset of effects this client inspects
type TransactionEffects struct {
	Status ExecutionStatus `json:"status"`
}

// TransactionBlock is the response of iota_getTransactionBlock
type TransactionBlock struct {
	Digest     string              `json:"digest"`
	Checkpoint string              `json:"checkpoint,omitempty"`
	Effects    *TransactionEffects `json:"effects,omitempty"`
}

// GetTransactionBlock fetches an executed transaction with its effects
func (s *Service) GetTransactionBlock(ctx context.Context, digest string) (*TransactionBlock, error) {
	var block TransactionBlock
	err := s.call(ctx, "iota_getTransactionBlock", []any{
		digest,
		map[string]bool{"showEffects": true},
	}, &block)
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// WaitForTransaction polls the fullnode until the transaction is indexed, the
// finality timeout elapses or ctx is done. A transaction whose effects report
// failure returns ErrTransactionFailed.
func (s *Service) WaitForTransaction(ctx context.Context, digest string) error {
	ctx, cancel := context.WithTimeout(ctx, s.finality)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		attempts++
		block, err := s.GetTransactionBlock(ctx, digest)
		if err == nil {
			zap.L().Debug("Transaction indexed",
				zap.String("digest", digest),
				zap.String("checkpoint", block.Checkpoint),
				zap.Int("attempts", attempts))

			if block.Effects != nil && block.Effects.Status.Status == "failure" {
				return fmt.Errorf("%w: %s", ErrTransactionFailed, block.Effects.Status.Error)
			}
			return nil
		}

		zap.L().Debug("Transaction not yet available",
			zap.String("digest", digest),
			zap.Int("attempts", attempts),
			zap.Error(err))

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s after %s", ErrFinalityTimeout, digest, s.finality)
			}
			return ctx.Err()
		}
	}
}
