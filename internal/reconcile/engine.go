package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/makki24/mybusiness-core/internal/backend"
	"github.com/makki24/mybusiness-core/internal/events"
	"github.com/makki24/mybusiness-core/internal/ledger"
)

// ErrNoPreview is returned when Apply is called without a preview to
// confirm; re-pricing never runs unconfirmed.
var ErrNoPreview = errors.New("no reconciliation preview to apply")

// ErrApplyInFlight is returned when an apply is attempted while one is
// already running.
var ErrApplyInFlight = errors.New("reconciliation apply already in flight")

// ErrPartialApply is returned when the backend re-priced fewer records
// than were candidates at apply time. Re-running is safe: updated
// records no longer match the old price.
var ErrPartialApply = errors.New("batch applied partially")

// ChannelPriceReconciled fires after every apply that changed records.
const ChannelPriceReconciled events.Channel = "reconcile.price_applied"

// NewReconciledNotifier builds the typed notifier for ChannelPriceReconciled.
func NewReconciledNotifier(r *events.Registry) *events.Notifier[Result] {
	return events.NewNotifier[Result](r, ChannelPriceReconciled)
}

// Preview is the confirmation-step summary: how many records match the
// old price and what the monetary delta of re-pricing them would be.
type Preview struct {
	Query           Query   `json:"query"`
	NewPricePerUnit float64 `json:"new_price_per_unit"`
	AffectedCount   int     `json:"affected_count"`
	OldTotal        float64 `json:"old_total"`
	NewTotal        float64 `json:"new_total"`
	Delta           float64 `json:"delta"`
}

// Result reports an applied batch. PreviewCount is the candidate count
// at apply time; when AffectedCount falls short the apply was partial.
type Result struct {
	AffectedCount   int     `json:"affected_count"`
	PreviewCount    int     `json:"preview_count"`
	NewPricePerUnit float64 `json:"new_price_per_unit"`
}

// Engine is the two-phase batch re-pricing engine. Preview computes the
// change, Apply persists it; Apply refuses to run without a preview and
// re-validates the old-price predicate at apply time instead of trusting
// the preview snapshot, so records edited in between are left alone.
type Engine struct {
	mu       sync.Mutex
	client   backend.Client
	resolver *Resolver
	notifier *events.Notifier[Result]
	logger   *zap.Logger

	preview  *Preview
	applying bool
}

// NewEngine creates an engine over the given backend client and registry.
func NewEngine(client backend.Client, registry *events.Registry, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		client:   client,
		resolver: NewResolver(client, logger),
		notifier: NewReconciledNotifier(registry),
		logger:   logger,
	}
}

// Resolver exposes the engine's filter resolver for callers that only
// need the candidate list.
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// Preview resolves the candidate set for q and computes the re-pricing
// summary without touching any record. The preview is retained as the
// pending confirmation for Apply. A superseded resolve yields an empty
// preview.
func (e *Engine) Preview(ctx context.Context, q Query, newPricePerUnit float64) (Preview, error) {
	if newPricePerUnit < 0 {
		return Preview{}, fmt.Errorf("%w: new price must not be negative", ledger.ErrValidation)
	}

	records, err := e.resolver.Resolve(ctx, q)
	if err != nil {
		return Preview{}, err
	}

	p := Preview{Query: q, NewPricePerUnit: newPricePerUnit}
	for _, rec := range records {
		p.AffectedCount++
		p.OldTotal += rec.Amount
		p.NewTotal += ledger.Round2(rec.Quantity * newPricePerUnit)
	}
	p.OldTotal = ledger.Round2(p.OldTotal)
	p.NewTotal = ledger.Round2(p.NewTotal)
	p.Delta = ledger.Round2(p.NewTotal - p.OldTotal)

	e.mu.Lock()
	e.preview = &p
	e.mu.Unlock()

	e.logger.Info("reconciliation previewed",
		zap.Float64("old_price", q.PricePerUnit),
		zap.Float64("new_price", newPricePerUnit),
		zap.Int("affected", p.AffectedCount),
		zap.Float64("delta", p.Delta),
	)
	return p, nil
}

// Apply persists the previously previewed re-pricing as one batch. The
// candidate set is resolved again first; only records still at the old
// price are touched, so applying the same old/new pair twice changes
// records exactly once. The pending preview is consumed whether or not
// any record still matched.
func (e *Engine) Apply(ctx context.Context) (Result, error) {
	e.mu.Lock()
	if e.applying {
		e.mu.Unlock()
		return Result{}, ErrApplyInFlight
	}
	if e.preview == nil {
		e.mu.Unlock()
		return Result{}, ErrNoPreview
	}
	p := *e.preview
	e.applying = true
	e.mu.Unlock()

	result, err := e.apply(ctx, p)

	e.mu.Lock()
	e.applying = false
	if err == nil || errors.Is(err, ErrPartialApply) {
		e.preview = nil
	}
	e.mu.Unlock()
	return result, err
}

func (e *Engine) apply(ctx context.Context, p Preview) (Result, error) {
	// Re-validate against the old price at apply time; the preview may
	// be stale by now.
	candidates, err := e.client.SearchWorks(ctx, p.Query.searchQuery())
	if err != nil {
		return Result{}, err
	}
	result := Result{PreviewCount: len(candidates), NewPricePerUnit: p.NewPricePerUnit}
	if len(candidates) == 0 {
		e.logger.Info("reconciliation apply found no remaining candidates",
			zap.Float64("old_price", p.Query.PricePerUnit),
		)
		return result, nil
	}

	batch, err := e.client.BatchUpdatePrice(ctx, backend.BatchUpdateRequest{
		Query:           p.Query.searchQuery(),
		NewPricePerUnit: p.NewPricePerUnit,
	})
	if err != nil {
		e.logger.Error("reconciliation apply failed", zap.Error(err))
		return Result{}, err
	}
	result.AffectedCount = batch.AffectedCount

	e.logger.Info("reconciliation applied",
		zap.Float64("old_price", p.Query.PricePerUnit),
		zap.Float64("new_price", p.NewPricePerUnit),
		zap.Int("affected", result.AffectedCount),
	)
	e.notifier.Notify(result)

	if result.AffectedCount < result.PreviewCount {
		return result, fmt.Errorf("%w: %d of %d records updated",
			ErrPartialApply, result.AffectedCount, result.PreviewCount)
	}
	return result, nil
}
