package iotarpc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"crowdfund-client-go/internal/models"
)

// moveObjectFields returns the struct fields of a Move object or
// ErrUnexpectedShape when the object carries no Move content.
func moveObjectFields(obj *ObjectData) (map[string]json.RawMessage, error) {
	if obj == nil || obj.Content == nil {
		return nil, fmt.Errorf("%w: object has no content", ErrUnexpectedShape)
	}
	if obj.Content.DataType != "moveObject" {
		return nil, fmt.Errorf("%w: data type %q", ErrUnexpectedShape, obj.Content.DataType)
	}
	if obj.Content.Fields == nil {
		return nil, fmt.Errorf("%w: object has no fields", ErrUnexpectedShape)
	}
	return obj.Content.Fields, nil
}

// u64Field decodes a u64 field, which the fullnode renders as a decimal string
func u64Field(fields map[string]json.RawMessage, name string) (uint64, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing field %q", ErrUnexpectedShape, name)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return 0, fmt.Errorf("%w: field %q is not a u64", ErrUnexpectedShape, name)
		}
		text = num.String()
	}

	value, err := strconv.ParseUint(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q: %v", ErrUnexpectedShape, name, err)
	}
	return value, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("%w: missing field %q", ErrUnexpectedShape, name)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: field %q is not a string", ErrUnexpectedShape, name)
	}
	return value, nil
}

// DecodeFundState decodes the shared fund object. Any shape problem returns a
// zero FundState together with an ErrUnexpectedShape error.
func DecodeFundState(obj *ObjectData) (models.FundState, error) {
	fields, err := moveObjectFields(obj)
	if err != nil {
		return models.FundState{}, err
	}

	balance, err := u64Field(fields, "balance")
	if err != nil {
		return models.FundState{}, err
	}
	raised, err := u64Field(fields, "total_raised")
	if err != nil {
		return models.FundState{}, err
	}

	return models.FundState{Balance: balance, TotalRaised: raised}, nil
}

// DecodeCollectible decodes one reward token. A missing valuation decodes as
// zero; a missing or unknown rarity is a shape error.
func DecodeCollectible(obj *ObjectData) (models.CollectibleRecord, error) {
	fields, err := moveObjectFields(obj)
	if err != nil {
		return models.CollectibleRecord{}, err
	}

	record := models.CollectibleRecord{Id: obj.ObjectId}

	if record.Name, err = stringField(fields, "name"); err != nil {
		return models.CollectibleRecord{}, err
	}
	if record.ImageUrl, err = stringField(fields, "image_url"); err != nil {
		return models.CollectibleRecord{}, err
	}

	tag, err := stringField(fields, "rarity")
	if err != nil {
		return models.CollectibleRecord{}, err
	}
	rarity, ok := models.ParseRarity(tag)
	if !ok {
		return models.CollectibleRecord{}, fmt.Errorf("%w: unknown rarity %q", ErrUnexpectedShape, tag)
	}
	record.Rarity = rarity

	if raw, present := fields["valuation"]; present && string(raw) != "null" {
		if record.Valuation, err = u64Field(fields, "valuation"); err != nil {
			return models.CollectibleRecord{}, err
		}
	}

	return record, nil
}

// DecodeAdminCapability derives the privilege flag from an owned-objects result
func DecodeAdminCapability(objs []ObjectData) models.AdminCapability {
	for _, obj := range objs {
		if obj.ObjectId != "" {
			return models.AdminCapability{Present: true, Id: obj.ObjectId}
		}
	}
	return models.AdminCapability{}
}
