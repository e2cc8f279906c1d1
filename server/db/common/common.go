// Package common contains utility methods used by all adapters.
package common

import (
	"context"
	"encoding/json"
	"errors"
	"net"

	t "github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

const (
	// DefaultPageSize is the number of messages returned when the page size is not specified.
	DefaultPageSize = 50
	// DefaultMaxResults is the upper bound on page size when the adapter is not configured otherwise.
	DefaultMaxResults = 1024
)

// PageBounds converts a 1-based page number and a page size into the offset and limit
// of a query. Zero page and zero page size select the first page and the default size.
// The page size is capped at maxResults.
func PageBounds(page, pageSize, maxResults int) (offset, limit int, err error) {
	if page < 0 || pageSize < 0 {
		return 0, 0, t.ErrMalformed
	}
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if pageSize > maxResults {
		pageSize = maxResults
	}

	// Guard against overflow on absurd page numbers.
	if page-1 > (int(^uint(0)>>1))/pageSize {
		return 0, 0, t.ErrMalformed
	}
	return (page - 1) * pageSize, pageSize, nil
}

// ToJSON converts an object to json.RawMessage suitable for storing in a JSON column.
// Nil and empty reaction lists are stored as NULL.
func ToJSON(src any) any {
	if src == nil {
		return nil
	}
	if l, ok := src.(t.ReactionLedger); ok && len(l) == 0 {
		return nil
	}

	jval, _ := json.Marshal(src)
	return jval
}

// FromJSON converts the content of a JSON column to a reaction list.
func FromJSON(src []byte) t.ReactionLedger {
	if len(src) == 0 {
		return nil
	}
	var out t.ReactionLedger
	if err := json.Unmarshal(src, &out); err != nil {
		return nil
	}
	return out
}

// IsTransient checks if the error is a timeout or a network failure, i.e. the operation
// may succeed if retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	var operr *net.OpError
	return errors.As(err, &operr)
}

// Unavailable converts transient errors into types.ErrUnavailable and returns the rest unchanged.
func Unavailable(err error) error {
	if IsTransient(err) {
		return t.ErrUnavailable
	}
	return err
}
