package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CallKind identifies which entry point a call targets
type CallKind string

const (
	CallDonate   CallKind = "donate"
	CallWithdraw CallKind = "withdraw"
)

// CallStatus is the coarse lifecycle of a locally tracked call
type CallStatus string

const (
	CallBuilding  CallStatus = "building"
	CallSubmitted CallStatus = "submitted"
	CallConfirmed CallStatus = "confirmed"
	CallFailed    CallStatus = "failed"
)

// IsTerminal reports whether no further transition can happen
func (s CallStatus) IsTerminal() bool {
	return s == CallConfirmed || s == CallFailed
}

// PendingCall is the local, transient record of a call the user triggered.
// It is a display projection only; confirmed ledger snapshots supersede it.
type PendingCall struct {
	Id          string          `db:"id"`
	Kind        CallKind        `db:"kind"`
	Sender      string          `db:"sender"`
	Amount      decimal.Decimal `db:"amount"` // donated amount, or withdrawn balance as last observed
	Status      CallStatus      `db:"status"`
	Digest      string          `db:"digest"`
	TierLabel   Rarity          `db:"tier_label"`
	Error       string          `db:"error"`
	CreatedAt   time.Time       `db:"created_at"`
	ConfirmedAt time.Time       `db:"confirmed_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// RecentDonation is one line of the local "recent donations" feed
type RecentDonation struct {
	User        string          `json:"user"`
	Amount      decimal.Decimal `json:"amount"`
	Tier        Rarity          `json:"tier"`
	Collectible string          `json:"collectible"`
	Digest      string          `json:"digest"`
	At          time.Time       `json:"at"`
}

// CollectibleName is the display name used for a tier in the feed
func CollectibleName(tier Rarity) string {
	if tier == RarityRare {
		return "Pixel Lion"
	}
	return "Pixel Cat"
}
