package synchronizer

import (
	"time"

	"crowdfund-client-go/internal/models"

	"github.com/shopspring/decimal"
)

// RescueGoal is the number of cats the campaign aims to rescue
const RescueGoal = 1000

// unitsPerCat is how many whole units of total_raised rescue one cat
var unitsPerCat = decimal.NewFromInt(5)

// Snapshot is the last confirmed ledger state. It is replaced wholesale,
// never mutated in place.
type Snapshot struct {
	Account      models.Account
	Connected    bool
	Fund         models.FundState
	FundObserved bool
	Collectibles []models.CollectibleRecord
	AdminCap     models.AdminCapability
	CompletedAt  time.Time
}

// View is a snapshot merged with the local optimistic state
type View struct {
	Snapshot
	Pending []models.PendingCall
	Recent  []models.RecentDonation
}

// RescuedCount returns floor(total_raised / 5) in whole units
func RescuedCount(fund models.FundState) int64 {
	return fund.TotalRaisedDisplay().Div(unitsPerCat).Floor().IntPart()
}

// Progress returns the rescue progress as a percentage capped at 100
func Progress(fund models.FundState) decimal.Decimal {
	pct := decimal.NewFromInt(RescuedCount(fund)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(RescueGoal))
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return pct
}

// RescuedCount of the view's fund state
func (v View) RescuedCount() int64 {
	return RescuedCount(v.Fund)
}

// Progress of the view's fund state
func (v View) Progress() decimal.Decimal {
	return Progress(v.Fund)
}

// IsAdmin reports whether the connected account can withdraw
func (v View) IsAdmin() bool {
	return v.Connected && v.AdminCap.Present
}
