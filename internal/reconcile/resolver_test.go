package reconcile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/makki24/mybusiness-core/internal/backend"
	"github.com/makki24/mybusiness-core/internal/ledger"
)

func seedRecords(fake *backend.Fake) {
	date := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }
	for i, qty := range []float64{1, 2, 3, 4, 5} {
		fake.Records = append(fake.Records, ledger.WorkRecord{
			ID:           fmt.Sprintf("rec-%d", i+1),
			User:         ledger.UserRef{ID: "u1"},
			Type:         ledger.WorkTypeRef{ID: "wt1"},
			Quantity:     qty,
			PricePerUnit: 20,
			Amount:       ledger.Round2(qty * 20),
			Date:         date(i + 1),
		})
	}
	// Same range, different price: never a candidate.
	fake.Records = append(fake.Records, ledger.WorkRecord{
		ID:           "odd-one",
		User:         ledger.UserRef{ID: "u1"},
		Type:         ledger.WorkTypeRef{ID: "wt1"},
		Quantity:     2,
		PricePerUnit: 22,
		Amount:       44,
		Date:         date(3),
	})
}

func TestResolveMatchesExactPriceOnly(t *testing.T) {
	fake := backend.NewFake()
	seedRecords(fake)
	r := NewResolver(fake, zaptest.NewLogger(t))

	records, err := r.Resolve(context.Background(), Query{UserID: "u1", PricePerUnit: 20})
	require.NoError(t, err)
	assert.Len(t, records, 5)
	for _, rec := range records {
		assert.Equal(t, 20.0, rec.PricePerUnit)
	}
}

func TestSupersededResolveIsDiscarded(t *testing.T) {
	fake := backend.NewFake()
	seedRecords(fake)
	r := NewResolver(fake, zaptest.NewLogger(t))

	aStarted := make(chan struct{})
	aRelease := make(chan struct{})
	fake.SearchGate = func(ctx context.Context, q backend.SearchQuery) error {
		if q.UserID == "slow" {
			close(aStarted)
			<-aRelease
			return ctx.Err()
		}
		return nil
	}

	var (
		aRecords []ledger.WorkRecord
		aErr     error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		aRecords, aErr = r.Resolve(context.Background(), Query{UserID: "slow", PricePerUnit: 20})
	}()
	<-aStarted

	// B supersedes A while A is still in flight.
	bRecords, bErr := r.Resolve(context.Background(), Query{UserID: "u1", PricePerUnit: 20})
	require.NoError(t, bErr)
	assert.Len(t, bRecords, 5)

	// A finishes afterwards: its result must be swallowed, not surfaced.
	close(aRelease)
	<-done
	assert.NoError(t, aErr)
	assert.Nil(t, aRecords)
}
