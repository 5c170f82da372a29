// Package reconcile rewrites historical work records after a unit-price
// change: a filter resolver picks the candidate set, a preview computes
// what would change, and an explicit apply persists it as one batch.
package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/makki24/mybusiness-core/internal/backend"
	"github.com/makki24/mybusiness-core/internal/ledger"
)

// Query selects the historical records a reconciliation operates on.
// PricePerUnit is the old unit price and matches exactly: records
// already moved off it are never candidates, which is what makes
// re-running an apply a no-op.
type Query struct {
	DateFrom     time.Time `json:"date_from"`
	DateTo       time.Time `json:"date_to"`
	UserID       string    `json:"user_id"`
	WorkTypeID   string    `json:"work_type_id"`
	PricePerUnit float64   `json:"price_per_unit"`
}

func (q Query) searchQuery() backend.SearchQuery {
	price := q.PricePerUnit
	return backend.SearchQuery{
		DateFrom:     q.DateFrom,
		DateTo:       q.DateTo,
		UserID:       q.UserID,
		WorkTypeID:   q.WorkTypeID,
		PricePerUnit: &price,
	}
}

// Resolver runs candidate searches with latest-request-wins semantics:
// issuing a new Resolve cancels the one in flight, and a superseded call
// returns an empty result with no error, so stale data never reaches
// the caller and cancellation is never surfaced as a failure.
type Resolver struct {
	mu     sync.Mutex
	client backend.Client
	logger *zap.Logger

	nextID uint64
	latest uint64
	cancel context.CancelFunc
}

// NewResolver creates a resolver over the given backend client.
func NewResolver(client backend.Client, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{client: client, logger: logger}
}

// Resolve returns the records matching q. If a later Resolve starts
// before this one finishes, this one's result is discarded and (nil,
// nil) is returned regardless of when the backend answers.
func (r *Resolver) Resolve(ctx context.Context, q Query) ([]ledger.WorkRecord, error) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.nextID++
	id := r.nextID
	r.latest = id
	r.mu.Unlock()

	records, err := r.client.SearchWorks(ctx, q.searchQuery())

	r.mu.Lock()
	superseded := r.latest != id
	if !superseded {
		r.cancel = nil
		cancel()
	}
	r.mu.Unlock()

	if superseded || errors.Is(err, context.Canceled) {
		r.logger.Debug("filter query superseded", zap.Uint64("request_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}
