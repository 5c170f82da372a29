package ledger

import "time"

// WorkRecord is a committed, backend-owned work line as returned by the
// search endpoint. Unlike a WorkLine it carries the server identifiers
// needed to address it in a batch update.
type WorkRecord struct {
	ID           string      `json:"id"`
	SaleID       string      `json:"sale_id"`
	Type         WorkTypeRef `json:"type"`
	User         UserRef     `json:"user"`
	Quantity     float64     `json:"quantity"`
	PricePerUnit float64     `json:"price_per_unit"`
	Amount       float64     `json:"amount"`
	Description  string      `json:"description"`
	Date         time.Time   `json:"date"`
	Tags         []Tag       `json:"tags"`
}
