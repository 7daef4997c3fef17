// Package realtime delivers insert notifications for rows matching a
// table and column-equality filter.
package realtime

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidFilter = errors.New("realtime: filter needs table, column and value")

// Row is the raw inserted row as pushed by the database; joined columns are absent.
type Row map[string]any

// String returns the column as a string, or "" when absent or null.
func (r Row) String(column string) string {
	v, ok := r[column]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ID returns the row's primary key.
func (r Row) ID() string { return r.String("id") }

// Filter selects insert events on Table whose Column equals Value.
type Filter struct {
	Table  string
	Column string
	Value  string
}

func (f Filter) Validate() error {
	if f.Table == "" || f.Column == "" || f.Value == "" {
		return ErrInvalidFilter
	}
	return nil
}

func (f Filter) key() string {
	return filterKey(f.Table, f.Column, f.Value)
}

func filterKey(table, column, value string) string {
	return table + "|" + column + "=" + value
}

// Handler receives inserted rows. Calls for one subscription are serialized.
type Handler func(Row)

// Subscription is an active interest in a filter.
type Subscription interface {
	Unsubscribe()
}

// Feed is a push-based source of insert notifications.
type Feed interface {
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
}
