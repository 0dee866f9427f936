// Package builder constructs ledger call descriptors for the crowdfunding
// Move package. It performs no network or wallet interaction.
package builder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"crowdfund-client-go/internal/models"

	"github.com/shopspring/decimal"
)

const (
	Module           = "crowdfunding"
	FunctionDonate   = "donate"
	FunctionWithdraw = "withdraw_funds"

	CollectibleStruct = "CatNFT"
	AdminCapStruct    = "AdminCap"
)

// RareThreshold is the donation amount, in whole units, from which the
// optimistic entry is labelled Rare. The ledger decides the real tier.
var RareThreshold = decimal.NewFromInt(10)

// ErrInvalidAmount is the only way building a call can fail
var ErrInvalidAmount = errors.New("invalid amount")

var maxUint64 = decimal.NewFromUint64(math.MaxUint64)

// maxAmountLength bounds the accepted input before any arithmetic
const maxAmountLength = 64

// maxIntegerDigits is the number of integer digits of the largest payment in
// display units (MaxUint64 base units is about 1.8e10).
const maxIntegerDigits = 20 - models.BaseUnitDecimals

// StructType returns the fully qualified Move type of a struct in the module
func StructType(packageId, name string) string {
	return fmt.Sprintf("%s::%s::%s", packageId, Module, name)
}

// ToBaseUnits converts a positive decimal amount string to base units,
// truncating digits beyond the ninth decimal place.
func ToBaseUnits(amount string) (uint64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}

	if len(amount) > maxAmountLength {
		return 0, fmt.Errorf("%w: amount is too long", ErrInvalidAmount)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, amount)
	}
	if !value.IsPositive() {
		return 0, fmt.Errorf("%w: %s must be greater than zero", ErrInvalidAmount, amount)
	}

	// Magnitude checks on the exponent keep Shift and Truncate cheap: the
	// value lies in [10^(m-1), 10^m) where m = digits + exponent.
	magnitude := int64(value.NumDigits()) + int64(value.Exponent())
	if magnitude > maxIntegerDigits {
		return 0, fmt.Errorf("%w: %s exceeds the maximum payment", ErrInvalidAmount, amount)
	}
	if magnitude < -models.BaseUnitDecimals+1 {
		return 0, fmt.Errorf("%w: %s is below one base unit", ErrInvalidAmount, amount)
	}

	base := value.Shift(models.BaseUnitDecimals).Truncate(0)
	if !base.IsPositive() {
		return 0, fmt.Errorf("%w: %s is below one base unit", ErrInvalidAmount, amount)
	}
	if base.GreaterThan(maxUint64) {
		return 0, fmt.Errorf("%w: %s exceeds the maximum payment", ErrInvalidAmount, amount)
	}

	return base.BigInt().Uint64(), nil
}

// TierLabel returns the advisory reward tier shown for a donation amount
func TierLabel(amount decimal.Decimal) models.Rarity {
	if amount.GreaterThanOrEqual(RareThreshold) {
		return models.RarityRare
	}
	return models.RarityCommon
}

// Donate builds the donate call: split the payment from the gas coin and pass
// it with the fund object to crowdfunding::donate.
func Donate(packageId, amount, fundId string) (*Descriptor, error) {
	payment, err := ToBaseUnits(amount)
	if err != nil {
		return nil, err
	}

	pure := make([]byte, 8)
	binary.LittleEndian.PutUint64(pure, payment)

	return &Descriptor{
		inputs: []input{
			{kind: inputPure, pure: pure},
			{kind: inputObject, objectId: fundId},
		},
		split: &splitCoins{
			coin:    argument{kind: argGasCoin},
			amounts: []argument{{kind: argInput, index: 0, pureArg: true}},
		},
		call: moveCall{
			target: EntryPoint{Package: packageId, Module: Module, Function: FunctionDonate},
			arguments: []argument{
				{kind: argInput, index: 1},
				{kind: argNestedResult, index: 0, result: 0},
			},
		},
		roles: []Argument{
			{Role: "fund", Value: fundId},
			{Role: "payment", Value: fmt.Sprintf("split(gas, %d)", payment)},
		},
		payment: payment,
	}, nil
}

// Withdraw builds the withdraw_funds call guarded by the admin capability
func Withdraw(packageId, adminCapId, fundId string) *Descriptor {
	return &Descriptor{
		inputs: []input{
			{kind: inputObject, objectId: adminCapId},
			{kind: inputObject, objectId: fundId},
		},
		call: moveCall{
			target: EntryPoint{Package: packageId, Module: Module, Function: FunctionWithdraw},
			arguments: []argument{
				{kind: argInput, index: 0},
				{kind: argInput, index: 1},
			},
		},
		roles: []Argument{
			{Role: "admin_cap", Value: adminCapId},
			{Role: "fund", Value: fundId},
		},
	}
}

