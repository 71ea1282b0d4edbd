package store

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samiro/storefront/internal/database"
	"github.com/samiro/storefront/internal/models"
)

// OrderPage is one keyset page of a user's order listing, newest first.
type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

// UserPage is one offset page of the user listing.
type UserPage struct {
	Users      []models.User `json:"users"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// orderCursor pins the (created_at, id) keyset position of the last order
// on the previous page.
type orderCursor struct {
	createdAt time.Time
	id        int64
}

func encodeOrderCursor(cursor orderCursor) string {
	raw := fmt.Sprintf("%d:%d", cursor.createdAt.UnixNano(), cursor.id)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// decodeOrderCursor treats an empty cursor as the first page. Anything that
// fails to parse is caller input and surfaces as ErrInvalidCursor.
func decodeOrderCursor(encoded string) (orderCursor, error) {
	if encoded == "" {
		// Sentinel past any real row; the hour of slack absorbs clock skew
		// between this process and the database.
		return orderCursor{
			createdAt: time.Now().Add(time.Hour),
			id:        int64(1<<63 - 1),
		}, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return orderCursor{}, database.ErrInvalidCursor
	}

	nanosPart, idPart, ok := strings.Cut(string(data), ":")
	if !ok {
		return orderCursor{}, database.ErrInvalidCursor
	}

	nanos, err := strconv.ParseInt(nanosPart, 10, 64)
	if err != nil {
		return orderCursor{}, database.ErrInvalidCursor
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return orderCursor{}, database.ErrInvalidCursor
	}

	return orderCursor{createdAt: time.Unix(0, nanos), id: id}, nil
}
