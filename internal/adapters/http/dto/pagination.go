package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// Page size bounds for list endpoints.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var (
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrNoCursor marks a first page request.
	ErrNoCursor = errors.New("no cursor provided")
)

// PaginationRequest carries the cursor query parameters of a list call.
type PaginationRequest struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit clamps Limit into [1, MaxLimit], using DefaultLimit when unset.
func (p *PaginationRequest) GetLimit() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}

// DecodeCursor returns ErrNoCursor when the request has no cursor.
func (p *PaginationRequest) DecodeCursor() (*CursorData, error) {
	return DecodeCursor(p.Cursor)
}

// PaginatedResponse is one page of a keyset-paginated listing.
type PaginatedResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// NewPaginatedResponse trims items to limit. Callers fetch limit+1 rows so
// that the extra row signals another page; the cursor then points at the
// last row kept.
func NewPaginatedResponse[T any](items []T, limit int, cursorOf func(T) *CursorData) *PaginatedResponse[T] {
	page := &PaginatedResponse[T]{Items: items}

	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true
	}

	if page.HasMore && limit > 0 && cursorOf != nil {
		page.NextCursor = EncodeCursor(cursorOf(page.Items[limit-1]))
	}

	if page.Items == nil {
		page.Items = []T{}
	}

	return page
}

// CursorData is the position a cursor encodes: the sort field, its value
// on the last row served, and that row's id as a tie breaker.
type CursorData struct {
	Field string `json:"f"`
	Value string `json:"v"`
	ID    string `json:"id"`
}

func NewCursor(field, value, id string) *CursorData {
	return &CursorData{Field: field, Value: value, ID: id}
}

// EncodeCursor renders data as an opaque URL-safe token.
func EncodeCursor(data *CursorData) string {
	if data == nil {
		return ""
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.URLEncoding.EncodeToString(raw)
}

func DecodeCursor(token string) (*CursorData, error) {
	if token == "" {
		return nil, ErrNoCursor
	}

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var data CursorData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, ErrInvalidCursor
	}

	return &data, nil
}
