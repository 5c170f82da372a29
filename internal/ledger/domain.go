package ledger

import (
	"math"
	"time"
)

// Tag labels a record for later filtering and reports.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserRef identifies a user known to the backend.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WorkTypeRef identifies a work type and carries its current unit price.
type WorkTypeRef struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	PricePerUnit float64 `json:"price_per_unit"`
}

// WorkLine is one unit of attributed work inside a composite draft.
// Unless DirectAmount is set, Amount is always Round2(Quantity * PricePerUnit).
// In direct-amount mode the line carries Quantity == 1 and PricePerUnit == Amount.
type WorkLine struct {
	Type         WorkTypeRef `json:"type"`
	User         UserRef     `json:"user"`
	Quantity     float64     `json:"quantity"`
	PricePerUnit float64     `json:"price_per_unit"`
	Amount       float64     `json:"amount"`
	Description  string      `json:"description"`
	Date         time.Time   `json:"date"`
	Tags         []Tag       `json:"tags"`
	DirectAmount bool        `json:"direct_amount"`
}

// SaleDraft is the sale half of a composite draft. User is the receiver.
type SaleDraft struct {
	User     *UserRef  `json:"user,omitempty"`
	Date     time.Time `json:"date"`
	SaleType string    `json:"sale_type"`
	Tags     []Tag     `json:"tags"`
}

// CompositeDraft is a sale with its attributed work lines. ID is empty for
// a new sale and carries the committed sale's ID when extending it with
// more work.
type CompositeDraft struct {
	ID    string     `json:"id,omitempty"`
	Sale  SaleDraft  `json:"sale"`
	Works []WorkLine `json:"works"`
}

// Round2 rounds a monetary value to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SetDetails fills the pricing fields of a line and recomputes Amount,
// keeping the amount invariant.
func (w *WorkLine) SetDetails(quantity, pricePerUnit float64) {
	w.DirectAmount = false
	w.Quantity = quantity
	w.PricePerUnit = pricePerUnit
	w.Amount = Round2(quantity * pricePerUnit)
}

// SetDirectAmount switches the line to direct-amount mode: the amount is
// entered as-is and quantity collapses to a single unit.
func (w *WorkLine) SetDirectAmount(amount float64) {
	w.DirectAmount = true
	w.Quantity = 1
	w.PricePerUnit = amount
	w.Amount = amount
}

// Clone returns a deep copy of the draft so callers can hand out
// snapshots without exposing the shared slices.
func (d CompositeDraft) Clone() CompositeDraft {
	out := d
	out.Sale.Tags = append([]Tag(nil), d.Sale.Tags...)
	if d.Sale.User != nil {
		u := *d.Sale.User
		out.Sale.User = &u
	}
	out.Works = make([]WorkLine, len(d.Works))
	for i, w := range d.Works {
		w.Tags = append([]Tag(nil), w.Tags...)
		out.Works[i] = w
	}
	return out
}
