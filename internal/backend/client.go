// Package backend talks to the ledger REST backend. The backend is an
// opaque collaborator: this package only shapes requests and decodes
// responses, it owns no business rules.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/makki24/mybusiness-core/internal/ledger"
)

// ErrBackend marks failures coming back from the backend or the network.
// They are retryable from the caller's side; nothing here retries.
var ErrBackend = errors.New("backend request failed")

// APIError is a decoded backend error payload.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return ErrBackend }

// CommitResult is what the backend returns for a committed composite
// draft: the sale's ID and one ID per created work line.
type CommitResult struct {
	SaleID  string   `json:"sale_id"`
	WorkIDs []string `json:"work_ids"`
}

// SearchQuery narrows the work-record search. Zero-valued fields are not
// sent. PricePerUnit, when set, matches the stored unit price exactly;
// reconciliation depends on that exactness for its idempotence.
type SearchQuery struct {
	DateFrom     time.Time
	DateTo       time.Time
	UserID       string
	WorkTypeID   string
	PricePerUnit *float64
}

// BatchUpdateRequest asks the backend to re-price every work record
// matching Query (which must carry the old unit price) to NewPricePerUnit,
// recomputing each record's amount from its unchanged quantity.
type BatchUpdateRequest struct {
	Query           SearchQuery
	NewPricePerUnit float64
}

// BatchUpdateResult reports how many records the backend re-priced.
type BatchUpdateResult struct {
	AffectedCount int    `json:"affected_count"`
	Message       string `json:"message"`
}

// Client is the surface the wizard and reconciliation engine need from
// the backend.
type Client interface {
	// CreateSale commits a composite draft as one request: the sale and
	// all its work lines together. A draft carrying an ID extends that
	// committed sale instead of creating a new one. Not idempotent.
	CreateSale(ctx context.Context, draft ledger.CompositeDraft) (CommitResult, error)

	// SearchWorks returns the historical work records matching the query.
	SearchWorks(ctx context.Context, q SearchQuery) ([]ledger.WorkRecord, error)

	// BatchUpdatePrice applies one re-pricing batch and returns the
	// affected count. Fire-to-completion: no cancellation once issued.
	BatchUpdatePrice(ctx context.Context, req BatchUpdateRequest) (BatchUpdateResult, error)

	// ListWorkTypes returns all work types with their current prices.
	ListWorkTypes(ctx context.Context) ([]ledger.WorkTypeRef, error)

	// ListUsers returns all known users.
	ListUsers(ctx context.Context) ([]ledger.UserRef, error)
}
