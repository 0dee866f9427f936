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

package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crowdfund-client-go/internal/models"
	"crowdfund-client-go/internal/notify"
	"crowdfund-client-go/internal/store"
	"crowdfund-client-go/internal/synchronizer"
	"crowdfund-client-go/internal/tracker"

	"go.uber.org/zap"
)

const journalTimeout = 5 * time.Second

var (
	ErrNoAccount = errors.New("no wallet account connected")
	ErrNotAdmin  = errors.New("connected account does not hold the admin capability")
)

// FundServiceConfig contains the collaborators of FundService
type FundServiceConfig struct {
	Network       models.NetworkConfig
	Tracker       *tracker.Tracker
	Synchronizer  *synchronizer.Synchronizer
	Accounts      synchronizer.AccountProvider
	Reader        synchronizer.ObjectReader
	Journal       store.CallJournal
	Notifications *notify.Center
}

// FundService is the entry point for the user-facing operations: donate,
// withdraw, and the merged fund view
type FundService struct {
	network       models.NetworkConfig
	tracker       *tracker.Tracker
	synchronizer  *synchronizer.Synchronizer
	accounts      synchronizer.AccountProvider
	reader        synchronizer.ObjectReader
	journal       store.CallJournal
	notifications *notify.Center
}

// NewFundService wires the services together and starts journaling every
// call transition
func NewFundService(cfg FundServiceConfig) *FundService {
	journal := cfg.Journal
	if journal == nil {
		journal = store.Discard{}
	}

	s := &FundService{
		network:       cfg.Network,
		tracker:       cfg.Tracker,
		synchronizer:  cfg.Synchronizer,
		accounts:      cfg.Accounts,
		reader:        cfg.Reader,
		journal:       journal,
		notifications: cfg.Notifications,
	}
	s.tracker.OnTransition(s.recordTransition)
	return s
}

func (s *FundService) recordTransition(call models.PendingCall, state tracker.State) {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	if err := s.journal.RecordCall(ctx, call); err != nil {
		if errors.Is(err, store.ErrCallFinalized) {
			zap.L().Debug("Call already journaled", zap.String("call_id", call.Id))
			return
		}
		zap.L().Error("Failed to journal call transition",
			zap.String("call_id", call.Id),
			zap.String("state", string(state)),
			zap.Error(err))
	}
}

func (s *FundService) HealthCheck(ctx context.Context) error {
	if _, err := s.reader.GetObject(ctx, s.network.FundId); err != nil {
		return fmt.Errorf("ledger health check failed: %w", err)
	}
	if _, err := s.journal.RecentCalls(ctx, store.RecentCallsParams{Limit: 1}); err != nil {
		return fmt.Errorf("journal health check failed: %w", err)
	}
	return nil
}

// Network returns the network the service talks to
func (s *FundService) Network() models.NetworkConfig {
	return s.network
}
