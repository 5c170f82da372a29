package ledger

import (
	"errors"
	"fmt"
)

// ErrValidation marks errors caught locally, before any network call.
var ErrValidation = errors.New("validation failed")

// ValidateForCommit checks that a draft is complete enough to submit:
// a receiver, at least one work line, and sane numbers on every line.
func ValidateForCommit(d CompositeDraft) error {
	if d.Sale.User == nil || d.Sale.User.ID == "" {
		return fmt.Errorf("%w: sale receiver is not set", ErrValidation)
	}
	if len(d.Works) == 0 {
		return fmt.Errorf("%w: draft has no work lines", ErrValidation)
	}
	for i, w := range d.Works {
		if w.User.ID == "" {
			return fmt.Errorf("%w: work line %d has no sender", ErrValidation, i)
		}
		if w.Quantity <= 0 {
			return fmt.Errorf("%w: work line %d quantity must be greater than zero", ErrValidation, i)
		}
		if w.Amount < 0 {
			return fmt.Errorf("%w: work line %d amount must not be negative", ErrValidation, i)
		}
	}
	return nil
}
