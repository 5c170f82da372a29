package backend

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"github.com/makki24/mybusiness-core/internal/ledger"
)

// HTTPClient is the resty implementation of Client.
type HTTPClient struct {
	rc     *resty.Client
	logger *zap.Logger
}

// NewHTTPClient creates a client for the backend at baseURL. The timeout
// bounds every request; callers add per-request deadlines via context.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &HTTPClient{rc: rc, logger: logger}
}

// Close releases the underlying resty client.
func (c *HTTPClient) Close() error {
	return c.rc.Close()
}

type batchUpdateBody struct {
	PricePerUnit    float64         `json:"price_per_unit"`
	OldPricePerUnit float64         `json:"old_price_per_unit"`
	Filter          searchQueryBody `json:"filter"`
}

type searchQueryBody struct {
	DateFrom   string `json:"date_from,omitempty"`
	DateTo     string `json:"date_to,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	WorkTypeID string `json:"work_type_id,omitempty"`
}

func queryBody(q SearchQuery) searchQueryBody {
	b := searchQueryBody{UserID: q.UserID, WorkTypeID: q.WorkTypeID}
	if !q.DateFrom.IsZero() {
		b.DateFrom = q.DateFrom.Format(time.RFC3339)
	}
	if !q.DateTo.IsZero() {
		b.DateTo = q.DateTo.Format(time.RFC3339)
	}
	return b
}

// CreateSale posts the draft to the create-sale-with-works endpoint.
func (c *HTTPClient) CreateSale(ctx context.Context, draft ledger.CompositeDraft) (CommitResult, error) {
	var (
		result CommitResult
		apiErr APIError
	)
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(draft).
		SetResult(&result).
		SetError(&apiErr).
		Post("/sales")
	if err != nil {
		return CommitResult{}, fmt.Errorf("%w: create sale: %v", ErrBackend, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		c.logger.Error("create sale rejected by backend",
			zap.Int("status", apiErr.Status),
			zap.String("message", apiErr.Message),
		)
		return CommitResult{}, &apiErr
	}
	c.logger.Info("sale committed",
		zap.String("sale_id", result.SaleID),
		zap.Int("work_count", len(result.WorkIDs)),
	)
	return result, nil
}

// SearchWorks queries the work-record search endpoint.
func (c *HTTPClient) SearchWorks(ctx context.Context, q SearchQuery) ([]ledger.WorkRecord, error) {
	var (
		records []ledger.WorkRecord
		apiErr  APIError
	)
	req := c.rc.R().
		SetContext(ctx).
		SetResult(&records).
		SetError(&apiErr)
	if !q.DateFrom.IsZero() {
		req.SetQueryParam("date_from", q.DateFrom.Format(time.RFC3339))
	}
	if !q.DateTo.IsZero() {
		req.SetQueryParam("date_to", q.DateTo.Format(time.RFC3339))
	}
	if q.UserID != "" {
		req.SetQueryParam("user_id", q.UserID)
	}
	if q.WorkTypeID != "" {
		req.SetQueryParam("work_type_id", q.WorkTypeID)
	}
	if q.PricePerUnit != nil {
		req.SetQueryParam("price_per_unit", strconv.FormatFloat(*q.PricePerUnit, 'f', -1, 64))
	}
	resp, err := req.Get("/works")
	if err != nil {
		return nil, fmt.Errorf("%w: search works: %v", ErrBackend, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return nil, &apiErr
	}
	return records, nil
}

// BatchUpdatePrice posts one re-pricing batch.
func (c *HTTPClient) BatchUpdatePrice(ctx context.Context, breq BatchUpdateRequest) (BatchUpdateResult, error) {
	if breq.Query.PricePerUnit == nil {
		return BatchUpdateResult{}, fmt.Errorf("%w: batch update without old price", ErrBackend)
	}
	var (
		result BatchUpdateResult
		apiErr APIError
	)
	body := batchUpdateBody{
		PricePerUnit:    breq.NewPricePerUnit,
		OldPricePerUnit: *breq.Query.PricePerUnit,
		Filter:          queryBody(breq.Query),
	}
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post("/works/price")
	if err != nil {
		return BatchUpdateResult{}, fmt.Errorf("%w: batch update price: %v", ErrBackend, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return BatchUpdateResult{}, &apiErr
	}
	c.logger.Info("batch price update applied",
		zap.Float64("new_price", breq.NewPricePerUnit),
		zap.Int("affected", result.AffectedCount),
	)
	return result, nil
}

// ListWorkTypes fetches all work types.
func (c *HTTPClient) ListWorkTypes(ctx context.Context) ([]ledger.WorkTypeRef, error) {
	var (
		types  []ledger.WorkTypeRef
		apiErr APIError
	)
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&types).
		SetError(&apiErr).
		Get("/worktypes")
	if err != nil {
		return nil, fmt.Errorf("%w: list work types: %v", ErrBackend, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return nil, &apiErr
	}
	return types, nil
}

// ListUsers fetches all users.
func (c *HTTPClient) ListUsers(ctx context.Context) ([]ledger.UserRef, error) {
	var (
		users  []ledger.UserRef
		apiErr APIError
	)
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&users).
		SetError(&apiErr).
		Get("/users")
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrBackend, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return nil, &apiErr
	}
	return users, nil
}
