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

// Package synchronizer polls the fund, the account's collectibles and its
// admin capability, and merges them with optimistic local call state.
package synchronizer

import (
	"context"
	"errors"
	"sync"
	"time"

	"crowdfund-client-go/internal/builder"
	"crowdfund-client-go/internal/iotarpc"
	"crowdfund-client-go/internal/models"

	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultPendingTTL   = 30 * time.Second
	maxRecentDonations  = 5
)

// AccountProvider yields the connected account, if any
type AccountProvider interface {
	CurrentAccount() (models.Account, bool)
}

// ObjectReader is the read-only ledger query surface
type ObjectReader interface {
	GetObject(ctx context.Context, objectId string) (*iotarpc.ObjectData, error)
	GetOwnedObjects(ctx context.Context, owner, structType string) ([]iotarpc.ObjectData, error)
}

// Config contains configuration for Synchronizer
type Config struct {
	PackageId    string
	FundId       string
	PollInterval time.Duration
	PendingTTL   time.Duration
}

// Synchronizer owns the latest snapshot and the poll and refresh timers
type Synchronizer struct {
	reader   ObjectReader
	accounts AccountProvider

	fundId          string
	collectibleType string
	adminCapType    string
	pollInterval    time.Duration
	pendingTTL      time.Duration

	// Cycles are serialised so snapshots are applied in order
	cycleMutex  sync.Mutex
	lastAddress string

	mutex       sync.RWMutex
	snapshot    *Snapshot
	pending     map[string]*pendingEntry
	recent      []models.RecentDonation
	subscribers []func(View)

	refreshMutex sync.Mutex
	refreshTimer *time.Timer
	runCtx       context.Context

	now func() time.Time

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
	started  bool
}

type pendingEntry struct {
	call models.PendingCall
	// collectible ids owned when the donation was confirmed
	knownCollectibles map[string]struct{}
	feedIndexed       bool
	// start of the display timeout: when the entry was added, then when it
	// was confirmed
	shownSince time.Time
}

// New creates a synchronizer; it does nothing until Start or Refresh
func New(cfg Config, reader ObjectReader, accounts AccountProvider) *Synchronizer {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	pendingTTL := cfg.PendingTTL
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}

	return &Synchronizer{
		reader:          reader,
		accounts:        accounts,
		fundId:          cfg.FundId,
		collectibleType: builder.StructType(cfg.PackageId, builder.CollectibleStruct),
		adminCapType:    builder.StructType(cfg.PackageId, builder.AdminCapStruct),
		pollInterval:    pollInterval,
		pendingTTL:      pendingTTL,
		snapshot:        &Snapshot{},
		pending:         make(map[string]*pendingEntry),
		runCtx:          context.Background(),
		now:             time.Now,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start begins polling. The first cycle runs immediately. Later calls are
// ignored.
func (s *Synchronizer) Start(ctx context.Context) {
	s.refreshMutex.Lock()
	if s.started {
		s.refreshMutex.Unlock()
		zap.L().Warn("State synchronizer already started")
		return
	}
	s.runCtx = ctx
	s.started = true
	s.refreshMutex.Unlock()

	zap.L().Info("Starting state synchronizer",
		zap.String("fund_id", s.fundId),
		zap.Duration("polling_interval", s.pollInterval))
	go s.pollLoop(ctx)
}

// Stop ends polling and cancels any scheduled refresh. In-flight calls are
// not affected.
func (s *Synchronizer) Stop() {
	s.stopOnce.Do(func() {
		zap.L().Info("Stopping state synchronizer")
		close(s.stopChan)

		s.refreshMutex.Lock()
		if s.refreshTimer != nil {
			s.refreshTimer.Stop()
			s.refreshTimer = nil
		}
		started := s.started
		s.refreshMutex.Unlock()

		if started {
			<-s.doneChan
		}
		zap.L().Info("State synchronizer stopped")
	})
}

// OnUpdate registers fn to receive the merged view after every cycle
func (s *Synchronizer) OnUpdate(fn func(View)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Synchronizer) pollLoop(ctx context.Context) {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.Refresh(ctx)

	for {
		select {
		case <-ticker.C:
			s.Refresh(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// ScheduleRefresh runs one extra cycle after delay. A later call replaces an
// earlier one that has not fired yet.
func (s *Synchronizer) ScheduleRefresh(delay time.Duration) {
	s.refreshMutex.Lock()
	defer s.refreshMutex.Unlock()

	select {
	case <-s.stopChan:
		return
	default:
	}

	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
	}
	ctx := s.runCtx
	s.refreshTimer = time.AfterFunc(delay, func() {
		select {
		case <-s.stopChan:
			return
		default:
		}
		s.Refresh(ctx)
	})

	zap.L().Debug("Scheduled refresh", zap.Duration("delay", delay))
}

// Refresh runs one poll cycle now and returns the resulting view
func (s *Synchronizer) Refresh(ctx context.Context) View {
	s.cycleMutex.Lock()
	defer s.cycleMutex.Unlock()

	startedAt := s.now()
	prev := s.Snapshot()
	next := &Snapshot{
		Fund:         prev.Fund,
		FundObserved: prev.FundObserved,
		Collectibles: prev.Collectibles,
		AdminCap:     prev.AdminCap,
	}

	account, connected := s.currentAccount()
	next.Account = account
	next.Connected = connected

	if !connected {
		// Account-scoped facts are never kept past the cycle that lost them
		next.Collectibles = nil
		next.AdminCap = models.AdminCapability{}
		next.CompletedAt = s.now()
		return s.apply(next, startedAt, false, false)
	}

	if s.lastAddress != "" && s.lastAddress != account.Address {
		zap.L().Info("Account changed, clearing account-scoped state",
			zap.String("previous", s.lastAddress),
			zap.String("current", account.Address))
		next.Collectibles = nil
		next.AdminCap = models.AdminCapability{}
		s.clearRecent()
	}
	s.lastAddress = account.Address

	var (
		wg              sync.WaitGroup
		fund            models.FundState
		fundErr         error
		collectibles    []models.CollectibleRecord
		collectiblesErr error
		adminCap        models.AdminCapability
		adminCapErr     error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		fund, fundErr = s.queryFund(ctx)
	}()
	go func() {
		defer wg.Done()
		collectibles, collectiblesErr = s.queryCollectibles(ctx, account.Address)
	}()
	go func() {
		defer wg.Done()
		adminCap, adminCapErr = s.queryAdminCap(ctx, account.Address)
	}()
	wg.Wait()

	if fundErr == nil {
		next.Fund = fund
		next.FundObserved = true
	} else {
		logQueryError("fund", s.fundId, fundErr)
	}
	if collectiblesErr == nil {
		next.Collectibles = collectibles
	} else {
		logQueryError("collectibles", account.Address, collectiblesErr)
	}
	if adminCapErr == nil {
		next.AdminCap = adminCap
	} else {
		logQueryError("admin_cap", account.Address, adminCapErr)
	}

	next.CompletedAt = s.now()
	return s.apply(next, startedAt, fundErr == nil, collectiblesErr == nil)
}

func (s *Synchronizer) currentAccount() (models.Account, bool) {
	if s.accounts == nil {
		return models.Account{}, false
	}
	account, ok := s.accounts.CurrentAccount()
	if !ok || account.Address == "" {
		return models.Account{}, false
	}
	return account, true
}

func (s *Synchronizer) queryFund(ctx context.Context) (models.FundState, error) {
	obj, err := s.reader.GetObject(ctx, s.fundId)
	if err != nil {
		return models.FundState{}, err
	}

	fund, err := iotarpc.DecodeFundState(obj)
	if err != nil {
		// Unexpected shape reads as an empty fund rather than a failed cycle
		zap.L().Warn("Fund object has unexpected shape, treating as zero",
			zap.String("fund_id", s.fundId),
			zap.Error(err))
	}
	fund.ObservedAt = s.now()
	return fund, nil
}

func (s *Synchronizer) queryCollectibles(ctx context.Context, owner string) ([]models.CollectibleRecord, error) {
	objs, err := s.reader.GetOwnedObjects(ctx, owner, s.collectibleType)
	if err != nil {
		return nil, err
	}

	records := make([]models.CollectibleRecord, 0, len(objs))
	for i := range objs {
		record, err := iotarpc.DecodeCollectible(&objs[i])
		if err != nil {
			zap.L().Warn("Skipping collectible with unexpected shape",
				zap.String("object_id", objs[i].ObjectId),
				zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Synchronizer) queryAdminCap(ctx context.Context, owner string) (models.AdminCapability, error) {
	objs, err := s.reader.GetOwnedObjects(ctx, owner, s.adminCapType)
	if err != nil {
		return models.AdminCapability{}, err
	}
	return iotarpc.DecodeAdminCapability(objs), nil
}

func logQueryError(query, subject string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	zap.L().Warn("Query failed, keeping previous snapshot",
		zap.String("query", query),
		zap.String("subject", subject),
		zap.Error(err))
}

// apply installs next, reconciles optimistic entries against it and
// notifies subscribers
func (s *Synchronizer) apply(next *Snapshot, startedAt time.Time, fundFresh, collectiblesFresh bool) View {
	s.mutex.Lock()
	s.snapshot = next
	s.reconcile(next, startedAt, fundFresh, collectiblesFresh)
	view := s.viewLocked()
	subscribers := append([]func(View){}, s.subscribers...)
	s.mutex.Unlock()

	for _, fn := range subscribers {
		fn(view)
	}
	return view
}

// Snapshot returns the latest confirmed snapshot
func (s *Synchronizer) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return *s.snapshot
}

// View returns the latest snapshot merged with live optimistic entries
func (s *Synchronizer) View() View {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.expireLocked()
	return s.viewLocked()
}
