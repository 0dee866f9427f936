package iotarpc

import (
	"encoding/json"
	"errors"
	"testing"

	"crowdfund-client-go/internal/models"
)

func moveObject(id string, fields string) *ObjectData {
	var f map[string]json.RawMessage
	if err := json.Unmarshal([]byte(fields), &f); err != nil {
		panic(err)
	}
	return &ObjectData{
		ObjectId: id,
		Content:  &ObjectContent{DataType: "moveObject", Fields: f},
	}
}

func TestDecodeFundState(t *testing.T) {
	fs, err := DecodeFundState(moveObject("0xfund", `{"balance":"5000000000","total_raised":"15000000000"}`))
	if err != nil {
		t.Fatalf("DecodeFundState failed: %v", err)
	}
	if fs.Balance != 5_000_000_000 || fs.TotalRaised != 15_000_000_000 {
		t.Errorf("unexpected fund state: %+v", fs)
	}
}

func TestDecodeFundState_NumericFields(t *testing.T) {
	fs, err := DecodeFundState(moveObject("0xfund", `{"balance":7,"total_raised":9}`))
	if err != nil {
		t.Fatalf("DecodeFundState failed: %v", err)
	}
	if fs.Balance != 7 || fs.TotalRaised != 9 {
		t.Errorf("unexpected fund state: %+v", fs)
	}
}

func TestDecodeFundState_UnexpectedShapeIsZero(t *testing.T) {
	tests := []struct {
		name string
		obj  *ObjectData
	}{
		{"nil object", nil},
		{"no content", &ObjectData{ObjectId: "0xfund"}},
		{"package content", &ObjectData{Content: &ObjectContent{DataType: "package"}}},
		{"missing raised", moveObject("0xfund", `{"balance":"1"}`)},
		{"garbage balance", moveObject("0xfund", `{"balance":"lots","total_raised":"1"}`)},
		{"negative balance", moveObject("0xfund", `{"balance":"-1","total_raised":"1"}`)},
	}
	for _, tt := range tests {
		fs, err := DecodeFundState(tt.obj)
		if !errors.Is(err, ErrUnexpectedShape) {
			t.Errorf("%s: error = %v, want ErrUnexpectedShape", tt.name, err)
		}
		if fs != (models.FundState{}) {
			t.Errorf("%s: expected zero fund state, got %+v", tt.name, fs)
		}
	}
}

func TestDecodeCollectible(t *testing.T) {
	rec, err := DecodeCollectible(moveObject("0xnft",
		`{"name":"Pixel Lion","image_url":"https://img/lion.png","rarity":"Rare","valuation":"12500000000"}`))
	if err != nil {
		t.Fatalf("DecodeCollectible failed: %v", err)
	}
	if rec.Id != "0xnft" || rec.Name != "Pixel Lion" || rec.Rarity != models.RarityRare {
		t.Errorf("unexpected record: %+v", rec)
	}
	if got := rec.ValuationDisplay(); got != "12.50" {
		t.Errorf("ValuationDisplay = %q, want 12.50", got)
	}
}

func TestDecodeCollectible_MissingValuation(t *testing.T) {
	rec, err := DecodeCollectible(moveObject("0xnft",
		`{"name":"Pixel Cat","image_url":"https://img/cat.png","rarity":"Common"}`))
	if err != nil {
		t.Fatalf("DecodeCollectible failed: %v", err)
	}
	if got := rec.ValuationDisplay(); got != "0.00" {
		t.Errorf("ValuationDisplay = %q, want 0.00", got)
	}
}

func TestDecodeCollectible_UnknownRarity(t *testing.T) {
	_, err := DecodeCollectible(moveObject("0xnft",
		`{"name":"Pixel Cat","image_url":"https://img/cat.png","rarity":"Legendary"}`))
	if !errors.Is(err, ErrUnexpectedShape) {
		t.Errorf("error = %v, want ErrUnexpectedShape", err)
	}
}

func TestDecodeAdminCapability(t *testing.T) {
	if adminCap := DecodeAdminCapability(nil); adminCap.Present {
		t.Errorf("empty result should not grant capability: %+v", adminCap)
	}

	adminCap := DecodeAdminCapability([]ObjectData{{ObjectId: "0xcap"}, {ObjectId: "0xother"}})
	if !adminCap.Present || adminCap.Id != "0xcap" {
		t.Errorf("unexpected capability: %+v", adminCap)
	}
}
