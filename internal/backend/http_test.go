package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/makki24/mybusiness-core/internal/ledger"
)

func TestCreateSalePostsDraftAndDecodesResult(t *testing.T) {
	var gotDraft ledger.CompositeDraft
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sales", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotDraft))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CommitResult{SaleID: "s-1", WorkIDs: []string{"w-1"}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, zaptest.NewLogger(t))
	defer c.Close()

	draft := ledger.CompositeDraft{
		Sale:  ledger.SaleDraft{User: &ledger.UserRef{ID: "u2"}},
		Works: []ledger.WorkLine{{User: ledger.UserRef{ID: "u1"}, Quantity: 3, PricePerUnit: 50, Amount: 150}},
	}
	result, err := c.CreateSale(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "s-1", result.SaleID)
	assert.Equal(t, []string{"w-1"}, result.WorkIDs)
	assert.Equal(t, "u2", gotDraft.Sale.User.ID)
	require.Len(t, gotDraft.Works, 1)
	assert.Equal(t, 150.0, gotDraft.Works[0].Amount)
}

func TestCreateSaleDecodesBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error": "receiver unknown"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, zaptest.NewLogger(t))
	defer c.Close()

	_, err := c.CreateSale(context.Background(), ledger.CompositeDraft{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "receiver unknown", apiErr.Message)
}

func TestSearchWorksSendsOnlySetFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/works", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "u1", q.Get("user_id"))
		assert.Equal(t, "20", q.Get("price_per_unit"))
		assert.False(t, q.Has("date_from"))
		assert.False(t, q.Has("work_type_id"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]ledger.WorkRecord{{ID: "rec-1", PricePerUnit: 20}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, zaptest.NewLogger(t))
	defer c.Close()

	price := 20.0
	records, err := c.SearchWorks(context.Background(), SearchQuery{UserID: "u1", PricePerUnit: &price})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rec-1", records[0].ID)
}

func TestBatchUpdatePricePostsOldAndNewPrice(t *testing.T) {
	var got batchUpdateBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/works/price", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(BatchUpdateResult{AffectedCount: 5, Message: "5 records updated"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, zaptest.NewLogger(t))
	defer c.Close()

	price := 20.0
	result, err := c.BatchUpdatePrice(context.Background(), BatchUpdateRequest{
		Query:           SearchQuery{UserID: "u1", WorkTypeID: "wt1", PricePerUnit: &price},
		NewPricePerUnit: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.AffectedCount)
	assert.Equal(t, 25.0, got.PricePerUnit)
	assert.Equal(t, 20.0, got.OldPricePerUnit)
	assert.Equal(t, "u1", got.Filter.UserID)
	assert.Equal(t, "wt1", got.Filter.WorkTypeID)
}

func TestBatchUpdateWithoutOldPriceIsRejected(t *testing.T) {
	c := NewHTTPClient("http://localhost:0", time.Second, zaptest.NewLogger(t))
	defer c.Close()

	_, err := c.BatchUpdatePrice(context.Background(), BatchUpdateRequest{NewPricePerUnit: 25})
	assert.ErrorIs(t, err, ErrBackend)
}

func TestListEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/worktypes":
			json.NewEncoder(w).Encode([]ledger.WorkTypeRef{{ID: "wt1", Name: "Labor", PricePerUnit: 50}})
		case "/users":
			json.NewEncoder(w).Encode([]ledger.UserRef{{ID: "u1", Name: "Sender"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, zaptest.NewLogger(t))
	defer c.Close()

	types, err := c.ListWorkTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, 50.0, types[0].PricePerUnit)

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)
}
