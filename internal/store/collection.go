// internal/store/collection.go
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	apperrors "usahud-crm/internal/common/errors"
)

// Collection names shared with the browser build. Each holds a single JSON array.
const (
	Customers         = "usahud_customers"
	Consultations     = "usahud_consultations"
	Leads             = "usahud_leads"
	Emails            = "usahud_emails"
	CommunicationLogs = "communication_logs"
	ScheduledMessages = "scheduled_messages"
	WorkflowInstances = "workflow_instances"
	PropertyShares    = "property_shares"
	ShareableLinks    = "shareable_links"
)

// Collection is a JSON array stored under one Redis key. Every write replaces
// the whole array, so concurrent writers race and the last one wins.
type Collection[T any] struct {
	rdb  redis.Cmdable
	name string
	key  string
}

// NewCollection binds a collection name to a Redis key. keyFn may be nil.
func NewCollection[T any](rdb redis.Cmdable, name string, keyFn func(string) string) *Collection[T] {
	key := name
	if keyFn != nil {
		key = keyFn(name)
	}
	return &Collection[T]{rdb: rdb, name: name, key: key}
}

// Name returns the logical collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Load returns every item. A missing key is an empty collection.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if err == redis.Nil {
		return []T{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageReadFailedError(c.name, err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperrors.NewStorageReadFailedError(c.name, fmt.Errorf("decode: %w", err))
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Save replaces the stored array.
func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return apperrors.NewStorageWriteFailedError(c.name, fmt.Errorf("encode: %w", err))
	}
	if err := c.rdb.Set(ctx, c.key, raw, 0).Err(); err != nil {
		return apperrors.NewStorageWriteFailedError(c.name, err)
	}
	return nil
}

// Update loads the array, applies fn and saves the result. fn returning an
// error aborts without writing.
func (c *Collection[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	items, err := c.Load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	return c.Save(ctx, next)
}

// Append adds one item at the end.
func (c *Collection[T]) Append(ctx context.Context, item T) error {
	return c.Update(ctx, func(items []T) ([]T, error) {
		return append(items, item), nil
	})
}

// Find returns the first item matching pred.
func (c *Collection[T]) Find(ctx context.Context, pred func(T) bool) (T, bool, error) {
	var zero T
	items, err := c.Load(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, item := range items {
		if pred(item) {
			return item, true, nil
		}
	}
	return zero, false, nil
}

// Filter returns the items matching pred in stored order.
func (c *Collection[T]) Filter(ctx context.Context, pred func(T) bool) ([]T, error) {
	items, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out, nil
}
