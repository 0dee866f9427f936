package synchronizer

import (
	"sort"
	"time"

	"crowdfund-client-go/internal/models"

	"go.uber.org/zap"
)

// AddPending records a submitted call for optimistic display
func (s *Synchronizer) AddPending(call models.PendingCall) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	known := make(map[string]struct{}, len(s.snapshot.Collectibles))
	for _, c := range s.snapshot.Collectibles {
		known[c.Id] = struct{}{}
	}
	s.pending[call.Id] = &pendingEntry{
		call:              call,
		knownCollectibles: known,
		shownSince:        s.now(),
	}

	zap.L().Debug("Optimistic entry added",
		zap.String("call_id", call.Id),
		zap.String("kind", string(call.Kind)))
}

// ConfirmPending marks an optimistic entry confirmed at the given time. A
// confirmed donation is added to the recent donations feed.
func (s *Synchronizer) ConfirmPending(callId string, at time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.pending[callId]
	if !ok {
		return
	}
	entry.call.Status = models.CallConfirmed
	entry.call.ConfirmedAt = at
	entry.call.UpdatedAt = at
	entry.shownSince = at

	if entry.call.Kind == models.CallDonate && !entry.feedIndexed {
		entry.feedIndexed = true
		s.pushRecentLocked(models.RecentDonation{
			User:        "You",
			Amount:      entry.call.Amount,
			Tier:        entry.call.TierLabel,
			Collectible: models.CollectibleName(entry.call.TierLabel),
			Digest:      entry.call.Digest,
			At:          at,
		})
	}
}

// DropPending removes an optimistic entry whose call failed
func (s *Synchronizer) DropPending(callId string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.pending, callId)
}

func (s *Synchronizer) pushRecentLocked(d models.RecentDonation) {
	s.recent = append([]models.RecentDonation{d}, s.recent...)
	if len(s.recent) > maxRecentDonations {
		s.recent = s.recent[:maxRecentDonations]
	}
}

func (s *Synchronizer) clearRecent() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.recent = nil
	for id := range s.pending {
		delete(s.pending, id)
	}
}

// reconcile supersedes confirmed entries once a query that began after their
// confirmation has completed. A collectible that appeared since the donation
// replaces the advisory tier in the feed.
func (s *Synchronizer) reconcile(next *Snapshot, startedAt time.Time, fundFresh, collectiblesFresh bool) {
	s.expireLocked()

	for id, entry := range s.pending {
		if entry.call.Status != models.CallConfirmed || !startedAt.After(entry.call.ConfirmedAt) {
			continue
		}

		if entry.call.Kind == models.CallDonate && collectiblesFresh {
			for _, c := range next.Collectibles {
				if _, seen := entry.knownCollectibles[c.Id]; seen {
					continue
				}
				s.applyTierLocked(entry.call.Digest, c.Rarity)
				break
			}
		}

		// A withdrawal only shows in the fund balance
		superseded := fundFresh
		if entry.call.Kind == models.CallDonate {
			superseded = fundFresh || collectiblesFresh
		}
		if superseded {
			delete(s.pending, id)
			zap.L().Debug("Optimistic entry superseded by snapshot",
				zap.String("call_id", id))
		}
	}
}

func (s *Synchronizer) applyTierLocked(digest string, tier models.Rarity) {
	for i := range s.recent {
		if s.recent[i].Digest == digest {
			s.recent[i].Tier = tier
			s.recent[i].Collectible = models.CollectibleName(tier)
			return
		}
	}
}

// expireLocked removes confirmed entries shown for longer than PendingTTL.
// Entries awaiting confirmation stay until the tracker confirms or drops them.
func (s *Synchronizer) expireLocked() {
	cutoff := s.now().Add(-s.pendingTTL)
	for id, entry := range s.pending {
		if entry.call.Status != models.CallConfirmed {
			continue
		}
		if entry.shownSince.Before(cutoff) {
			delete(s.pending, id)
			zap.L().Debug("Optimistic entry expired", zap.String("call_id", id))
		}
	}
}

func (s *Synchronizer) viewLocked() View {
	pending := make([]models.PendingCall, 0, len(s.pending))
	for _, entry := range s.pending {
		pending = append(pending, entry.call)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	return View{
		Snapshot: *s.snapshot,
		Pending:  pending,
		Recent:   append([]models.RecentDonation(nil), s.recent...),
	}
}
