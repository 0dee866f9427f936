package formance

import (
	"math/big"
	"strings"
	"testing"

	"crowdfund-client-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
)

func TestFundAccount(t *testing.T) {
	if got := fundAccount("0xfund"); got != "fund:0xfund" {
		t.Errorf("fundAccount = %q", got)
	}
}

func TestFundFromVolumes(t *testing.T) {
	tests := []struct {
		name string
		vols map[string]shared.V2Volume
		want models.FundState
	}{
		{"no volumes", nil, models.FundState{}},
		{"other asset", map[string]shared.V2Volume{"USD/2": {Input: big.NewInt(5)}}, models.FundState{}},
		{
			"input and output",
			map[string]shared.V2Volume{fundAsset: {Input: big.NewInt(120_000_000_000), Output: big.NewInt(20_000_000_000)}},
			models.FundState{Balance: 100_000_000_000, TotalRaised: 120_000_000_000},
		},
		{
			"explicit balance wins",
			map[string]shared.V2Volume{fundAsset: {Input: big.NewInt(10), Output: big.NewInt(4), Balance: big.NewInt(7)}},
			models.FundState{Balance: 7, TotalRaised: 10},
		},
		{
			"overdrawn clamps to zero",
			map[string]shared.V2Volume{fundAsset: {Input: big.NewInt(3), Output: big.NewInt(9)}},
			models.FundState{Balance: 0, TotalRaised: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fundFromVolumes(tt.vols); got != tt.want {
				t.Errorf("fundFromVolumes = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClampUint64(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 70)
	if got := clampUint64(huge); got != ^uint64(0) {
		t.Errorf("clampUint64(2^70) = %d, want max", got)
	}
	if got := clampUint64(big.NewInt(-1)); got != 0 {
		t.Errorf("clampUint64(-1) = %d, want 0", got)
	}
}

func TestValidateConfig(t *testing.T) {
	full := models.FormanceConfig{StackURL: "http://localhost", ClientID: "id", ClientSecret: "secret"}
	if err := validateConfig(full, "0xfund"); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	err := validateConfig(models.FormanceConfig{StackURL: "http://localhost"}, "0xfund")
	if err == nil || !strings.Contains(err.Error(), "FORMANCE_CLIENT_ID, FORMANCE_CLIENT_SECRET") {
		t.Errorf("missing credentials error = %v", err)
	}

	if err := validateConfig(full, ""); err == nil {
		t.Error("empty fund id accepted")
	}
}
