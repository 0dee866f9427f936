package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BaseUnitDecimals is the number of decimal places between a display amount
// and the ledger's integer base unit (1 IOTA = 1e9 base units).
const BaseUnitDecimals = 9

// Account is the wallet account currently connected by the user
type Account struct {
	Address string `json:"address"`
}

// Rarity is the reward tier of a collectible
type Rarity string

const (
	RarityCommon Rarity = "Common"
	RarityRare   Rarity = "Rare"
)

// ParseRarity maps a ledger rarity tag to a Rarity
func ParseRarity(tag string) (Rarity, bool) {
	switch Rarity(tag) {
	case RarityCommon:
		return RarityCommon, true
	case RarityRare:
		return RarityRare, true
	}
	return "", false
}

// FundState is a read-only snapshot of the shared fund object
type FundState struct {
	Balance     uint64    `json:"balance"`
	TotalRaised uint64    `json:"total_raised"`
	ObservedAt  time.Time `json:"observed_at"`
}

// BalanceDisplay returns the pool balance in whole currency units
func (f FundState) BalanceDisplay() decimal.Decimal {
	return FromBaseUnits(f.Balance)
}

// TotalRaisedDisplay returns the cumulative raised amount in whole currency units
func (f FundState) TotalRaisedDisplay() decimal.Decimal {
	return FromBaseUnits(f.TotalRaised)
}

// CollectibleRecord is one reward token owned by the connected account
type CollectibleRecord struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	ImageUrl  string `json:"image_url"`
	Rarity    Rarity `json:"rarity"`
	Valuation uint64 `json:"valuation"`
}

// ValuationDisplay renders the valuation with two decimals ("0.00" when absent)
func (c CollectibleRecord) ValuationDisplay() string {
	return FromBaseUnits(c.Valuation).StringFixed(2)
}

// AdminCapability records whether the account owns the privilege-marker object
type AdminCapability struct {
	Present bool   `json:"present"`
	Id      string `json:"id,omitempty"`
}

// FromBaseUnits converts an integer base-unit amount to a display decimal
func FromBaseUnits(amount uint64) decimal.Decimal {
	return decimal.NewFromUint64(amount).Shift(-BaseUnitDecimals)
}
