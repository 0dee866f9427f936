package iotarpc

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// ownedObjectsPageLimit is the page size requested from iotax_getOwnedObjects
const ownedObjectsPageLimit = 50

// ObjectContent is the parsed Move content of an object
type ObjectContent struct {
	DataType string                     `json:"dataType"`
	Type     string                     `json:"type"`
	Fields   map[string]json.RawMessage `json:"fields"`
}

// ObjectData is the subset of iota_getObject data this client reads
type ObjectData struct {
	ObjectId string          `json:"objectId"`
	Version  string          `json:"version"`
	Digest   string          `json:"digest"`
	Type     string          `json:"type"`
	Owner    json.RawMessage `json:"owner,omitempty"`
	Content  *ObjectContent  `json:"content,omitempty"`
}

// ObjectError is returned by the fullnode in place of data (e.g. notExists)
type ObjectError struct {
	Code     string `json:"code"`
	ObjectId string `json:"object_id"`
}

type objectResponse struct {
	Data  *ObjectData  `json:"data"`
	Error *ObjectError `json:"error"`
}

type ownedObjectsPage struct {
	Data        []objectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

type objectDataOptions struct {
	ShowType    bool `json:"showType"`
	ShowOwner   bool `json:"showOwner"`
	ShowContent bool `json:"showContent"`
}

type ownedObjectsQuery struct {
	Filter  map[string]string `json:"filter,omitempty"`
	Options objectDataOptions `json:"options"`
}

// GetObject reads one object with its content and owner
func (s *Service) GetObject(ctx context.Context, objectId string) (*ObjectData, error) {
	var resp objectResponse
	err := s.call(ctx, "iota_getObject", []any{
		objectId,
		objectDataOptions{ShowType: true, ShowOwner: true, ShowContent: true},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: object %s: %s", ErrQuery, objectId, resp.Error.Code)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: object %s returned no data", ErrQuery, objectId)
	}
	return resp.Data, nil
}

// GetOwnedObjects lists every object of structType owned by owner, following
// the fullnode's pagination cursor.
func (s *Service) GetOwnedObjects(ctx context.Context, owner, structType string) ([]ObjectData, error) {
	query := ownedObjectsQuery{
		Filter:  map[string]string{"StructType": structType},
		Options: objectDataOptions{ShowType: true, ShowContent: true},
	}

	var objects []ObjectData
	var cursor *string
	for {
		var page ownedObjectsPage
		err := s.call(ctx, "iotax_getOwnedObjects", []any{owner, query, cursor, ownedObjectsPageLimit}, &page)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQuery, err)
		}

		for _, item := range page.Data {
			if item.Data == nil {
				continue
			}
			objects = append(objects, *item.Data)
		}

		if !page.HasNextPage || page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}

	zap.L().Debug("Owned objects fetched",
		zap.String("owner", owner),
		zap.String("struct_type", structType),
		zap.Int("count", len(objects)))

	return objects, nil
}
