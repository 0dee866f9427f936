package builder

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"crowdfund-client-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPackage = "0xf9706e190abe57f0b1b5afc407d95111a32e2ffbcff7830db792c3691270235c"
	testFund    = "0x3df62b6a415e4668ef5b35a71e78c4c75a08a1cc40f6da4453a56a60e3f32a71"
	testCap     = "0xab4b00500fdabae88ff66e9f33f91b3ece7368918372d34951ee8bdd9f01942c"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   uint64
	}{
		{"5", 5_000_000_000},
		{"10", 10_000_000_000},
		{"0.5", 500_000_000},
		{"1.000000001", 1_000_000_001},
		{"1.0000000019", 1_000_000_001}, // truncated past the ninth decimal
		{" 2.25 ", 2_250_000_000},
		{"120", 120_000_000_000},
	}
	for _, tt := range tests {
		got, err := ToBaseUnits(tt.amount)
		if err != nil {
			t.Errorf("ToBaseUnits(%q) unexpected error: %v", tt.amount, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ToBaseUnits(%q) = %d, want %d", tt.amount, got, tt.want)
		}
	}
}

func TestToBaseUnits_Invalid(t *testing.T) {
	for _, amount := range []string{"", "   ", "0", "0.0", "-1", "abc", "1,5", "0.0000000001", "99999999999999999999"} {
		_, err := ToBaseUnits(amount)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ToBaseUnits(%q) error = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestToBaseUnits_ExtremeExponentsRejectedQuickly(t *testing.T) {
	tests := []struct {
		amount string
		reason string
	}{
		{"1e2000000000", "exceeds"},
		{"1e5000000", "exceeds"},
		{"1e11", "exceeds"},
		{"1e-2000000000", "below one base unit"},
		{"1e-10", "below one base unit"},
		{"1" + strings.Repeat("0", 80), "too long"},
	}
	for _, tt := range tests {
		start := time.Now()
		_, err := ToBaseUnits(tt.amount)
		elapsed := time.Since(start)

		if !errors.Is(err, ErrInvalidAmount) || !strings.Contains(err.Error(), tt.reason) {
			t.Errorf("ToBaseUnits(%.20q) error = %v, want %q", tt.amount, err, tt.reason)
		}
		if elapsed > 50*time.Millisecond {
			t.Errorf("ToBaseUnits(%.20q) took %v", tt.amount, elapsed)
		}
	}
}

func TestToBaseUnits_MagnitudeEdges(t *testing.T) {
	got, err := ToBaseUnits("1e10")
	require.NoError(t, err)
	assert.Equal(t, uint64(1e19), got)

	got, err = ToBaseUnits("1e-9")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)

	got, err = ToBaseUnits("18446744073.709551615")
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got)

	_, err = ToBaseUnits("18446744073.709551616")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDonate_Descriptor(t *testing.T) {
	d, err := Donate(testPackage, "5", testFund)
	require.NoError(t, err)

	assert.Equal(t, testPackage+"::crowdfunding::donate", d.Target().String())
	assert.Equal(t, uint64(5_000_000_000), d.Payment())
	assert.Equal(t, []Argument{
		{Role: "fund", Value: testFund},
		{Role: "payment", Value: "split(gas, 5000000000)"},
	}, d.Arguments())
}

func TestDonate_InvalidAmountProducesNoDescriptor(t *testing.T) {
	d, err := Donate(testPackage, "0", testFund)
	require.ErrorIs(t, err, ErrInvalidAmount)
	assert.Nil(t, d)
}

func TestWithdraw_Descriptor(t *testing.T) {
	d := Withdraw(testPackage, testCap, testFund)

	assert.Equal(t, testPackage+"::crowdfunding::withdraw_funds", d.Target().String())
	assert.Zero(t, d.Payment())
	assert.Equal(t, []Argument{
		{Role: "admin_cap", Value: testCap},
		{Role: "fund", Value: testFund},
	}, d.Arguments())
}

func TestArgumentsReturnsCopy(t *testing.T) {
	d := Withdraw(testPackage, testCap, testFund)
	args := d.Arguments()
	args[0].Value = "tampered"

	assert.Equal(t, testCap, d.Arguments()[0].Value)
}

func TestWithSenderLeavesOriginalUntouched(t *testing.T) {
	d := Withdraw(testPackage, testCap, testFund)
	bound := d.WithSender("0xabc")

	assert.Empty(t, d.Sender())
	assert.Equal(t, "0xabc", bound.Sender())
}

// serialized mirrors the subset of the transaction JSON the tests inspect
type serialized struct {
	Version  int    `json:"version"`
	Sender   string `json:"sender"`
	Inputs   []map[string]json.RawMessage
	Commands []map[string]json.RawMessage
}

func TestDonate_MarshalJSON(t *testing.T) {
	d, err := Donate(testPackage, "10", testFund)
	require.NoError(t, err)

	raw, err := json.Marshal(d.WithSender("0xsender"))
	require.NoError(t, err)

	var tx serialized
	require.NoError(t, json.Unmarshal(raw, &tx))
	assert.Equal(t, 2, tx.Version)
	assert.Equal(t, "0xsender", tx.Sender)
	require.Len(t, tx.Inputs, 2)
	require.Len(t, tx.Commands, 2)

	var pure struct {
		Bytes string `json:"bytes"`
	}
	require.NoError(t, json.Unmarshal(tx.Inputs[0]["Pure"], &pure))
	b, err := base64.StdEncoding.DecodeString(pure.Bytes)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000_000), binary.LittleEndian.Uint64(b))

	var obj struct {
		ObjectId string `json:"objectId"`
	}
	require.NoError(t, json.Unmarshal(tx.Inputs[1]["UnresolvedObject"], &obj))
	assert.Equal(t, testFund, obj.ObjectId)

	assert.Contains(t, tx.Commands[0], "SplitCoins")

	var call struct {
		Package   string            `json:"package"`
		Module    string            `json:"module"`
		Function  string            `json:"function"`
		Arguments []json.RawMessage `json:"arguments"`
	}
	require.NoError(t, json.Unmarshal(tx.Commands[1]["MoveCall"], &call))
	assert.Equal(t, testPackage, call.Package)
	assert.Equal(t, "crowdfunding", call.Module)
	assert.Equal(t, "donate", call.Function)
	require.Len(t, call.Arguments, 2)
	assert.JSONEq(t, `{"$kind":"Input","Input":1,"type":"object"}`, string(call.Arguments[0]))
	assert.JSONEq(t, `{"$kind":"NestedResult","NestedResult":[0,0]}`, string(call.Arguments[1]))
}

func TestWithdraw_MarshalJSONHasNoSplit(t *testing.T) {
	raw, err := json.Marshal(Withdraw(testPackage, testCap, testFund))
	require.NoError(t, err)

	var tx serialized
	require.NoError(t, json.Unmarshal(raw, &tx))
	require.Len(t, tx.Commands, 1)
	assert.Contains(t, tx.Commands[0], "MoveCall")
}

func TestTierLabel(t *testing.T) {
	tests := []struct {
		amount string
		want   models.Rarity
	}{
		{"5", models.RarityCommon},
		{"9.999", models.RarityCommon},
		{"10", models.RarityRare},
		{"50", models.RarityRare},
	}
	for _, tt := range tests {
		if got := TierLabel(decimal.RequireFromString(tt.amount)); got != tt.want {
			t.Errorf("TierLabel(%s) = %s, want %s", tt.amount, got, tt.want)
		}
	}
}

func TestStructType(t *testing.T) {
	assert.Equal(t, "0x1::crowdfunding::CatNFT", StructType("0x1", CollectibleStruct))
	assert.Equal(t, "0x1::crowdfunding::AdminCap", StructType("0x1", AdminCapStruct))
}
