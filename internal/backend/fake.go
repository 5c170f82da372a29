package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/makki24/mybusiness-core/internal/ledger"
)

// Fake is an in-memory Client for tests. It keeps records in a slice,
// counts calls, and lets tests inject failures or gate a search so that
// cancellation ordering can be exercised deterministically.
type Fake struct {
	mu sync.Mutex

	Records   []ledger.WorkRecord
	WorkTypes []ledger.WorkTypeRef
	Users     []ledger.UserRef

	CreateCalls int
	SearchCalls int
	BatchCalls  int

	// FailCreate and FailBatch, when set, are returned instead of
	// performing the call.
	FailCreate error
	FailBatch  error

	// SearchGate, when set, runs before a search returns; returning an
	// error aborts the search with it. Tests use it to hold a request
	// in flight.
	SearchGate func(ctx context.Context, q SearchQuery) error

	// LastDraft is the draft most recently passed to CreateSale.
	LastDraft ledger.CompositeDraft

	nextSale int
	nextWork int
}

// NewFake creates an empty fake backend.
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) CreateSale(ctx context.Context, draft ledger.CompositeDraft) (CommitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.CreateCalls++
	if f.FailCreate != nil {
		return CommitResult{}, f.FailCreate
	}
	if err := ctx.Err(); err != nil {
		return CommitResult{}, err
	}

	f.LastDraft = draft.Clone()

	saleID := draft.ID
	if saleID == "" {
		f.nextSale++
		saleID = fmt.Sprintf("sale-%d", f.nextSale)
	}
	result := CommitResult{SaleID: saleID}
	for _, w := range draft.Works {
		f.nextWork++
		id := fmt.Sprintf("work-%d", f.nextWork)
		result.WorkIDs = append(result.WorkIDs, id)
		rec := ledger.WorkRecord{
			ID:           id,
			SaleID:       saleID,
			Type:         w.Type,
			User:         w.User,
			Quantity:     w.Quantity,
			PricePerUnit: w.PricePerUnit,
			Amount:       w.Amount,
			Description:  w.Description,
			Date:         w.Date,
			Tags:         w.Tags,
		}
		f.Records = append(f.Records, rec)
	}
	return result, nil
}

func (f *Fake) SearchWorks(ctx context.Context, q SearchQuery) ([]ledger.WorkRecord, error) {
	f.mu.Lock()
	f.SearchCalls++
	gate := f.SearchGate
	f.mu.Unlock()

	if gate != nil {
		if err := gate(ctx, q); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ledger.WorkRecord
	for _, rec := range f.Records {
		if matches(q, rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *Fake) BatchUpdatePrice(ctx context.Context, req BatchUpdateRequest) (BatchUpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.BatchCalls++
	if f.FailBatch != nil {
		return BatchUpdateResult{}, f.FailBatch
	}
	if err := ctx.Err(); err != nil {
		return BatchUpdateResult{}, err
	}

	affected := 0
	for i, rec := range f.Records {
		if !matches(req.Query, rec) {
			continue
		}
		rec.PricePerUnit = req.NewPricePerUnit
		rec.Amount = ledger.Round2(rec.Quantity * req.NewPricePerUnit)
		f.Records[i] = rec
		affected++
	}
	return BatchUpdateResult{
		AffectedCount: affected,
		Message:       fmt.Sprintf("%d records updated", affected),
	}, nil
}

func (f *Fake) ListWorkTypes(ctx context.Context) ([]ledger.WorkTypeRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ledger.WorkTypeRef(nil), f.WorkTypes...), nil
}

func (f *Fake) ListUsers(ctx context.Context) ([]ledger.UserRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ledger.UserRef(nil), f.Users...), nil
}

// matches applies a search query to one record. The price predicate is
// an exact comparison; reconciliation relies on that to skip records
// already moved off the old price.
func matches(q SearchQuery, rec ledger.WorkRecord) bool {
	if !q.DateFrom.IsZero() && rec.Date.Before(q.DateFrom) {
		return false
	}
	if !q.DateTo.IsZero() && rec.Date.After(q.DateTo) {
		return false
	}
	if q.UserID != "" && rec.User.ID != q.UserID {
		return false
	}
	if q.WorkTypeID != "" && rec.Type.ID != q.WorkTypeID {
		return false
	}
	if q.PricePerUnit != nil && rec.PricePerUnit != *q.PricePerUnit {
		return false
	}
	return true
}
