package formance

import (
	"context"
	"fmt"
	"math/big"

	"crowdfund-client-go/internal/models"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// fundAccount is the ledger account that mirrors the on-chain fund object
func fundAccount(fundId string) string {
	return "fund:" + fundId
}

// FundTotals returns the fund as journaled: TotalRaised is every confirmed
// donation received, Balance is donations minus confirmed withdrawals.
func (s *Service) FundTotals(ctx context.Context) (models.FundState, error) {
	address := fundAccount(s.fundId)
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: address,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		return models.FundState{}, fmt.Errorf("failed to read fund account %s: %w", address, err)
	}

	fund := fundFromVolumes(resp.V2AccountResponse.Data.Volumes)
	zap.L().Debug("Journaled fund totals",
		zap.String("account", address),
		zap.Uint64("balance", fund.Balance),
		zap.Uint64("total_raised", fund.TotalRaised))
	return fund, nil
}

func fundFromVolumes(vols map[string]shared.V2Volume) models.FundState {
	vol, ok := vols[fundAsset]
	if !ok {
		return models.FundState{}
	}

	input := new(big.Int)
	if vol.Input != nil {
		input.Set(vol.Input)
	}
	balance := new(big.Int).Set(input)
	if vol.Balance != nil {
		balance.Set(vol.Balance)
	} else if vol.Output != nil {
		balance.Sub(balance, vol.Output)
	}

	return models.FundState{
		Balance:     clampUint64(balance),
		TotalRaised: clampUint64(input),
	}
}

// clampUint64 maps negative volumes to zero and saturates at the u64 max
func clampUint64(v *big.Int) uint64 {
	if v.Sign() <= 0 {
		return 0
	}
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}
