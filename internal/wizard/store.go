// Package wizard holds the shared composite-transaction draft and the
// step graph that screens walk to build a "sale with attributed work".
// The store is the one mutable slot every step reads and writes; all
// legal movement through the flow is enforced here, not in the screens.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/makki24/mybusiness-core/internal/backend"
	"github.com/makki24/mybusiness-core/internal/events"
	"github.com/makki24/mybusiness-core/internal/ledger"
)

// ErrInvalidStep is returned when a mutation is not a legal edge from
// the store's current step.
var ErrInvalidStep = errors.New("operation not allowed at current step")

// ErrSubmitInFlight is returned when a second submission is attempted
// while one is already running.
var ErrSubmitInFlight = errors.New("submission already in flight")

// AttendanceEntry is one attending user and the dates they attended,
// as delivered by the attendance shortcut.
type AttendanceEntry struct {
	User  ledger.UserRef `json:"user"`
	Dates []time.Time    `json:"dates"`
}

// Details is the uniform detail entry applied to every current work
// line. With DirectAmount set, Amount is taken as entered and
// Quantity/PricePerUnit are ignored; otherwise Amount is recomputed
// from Quantity and PricePerUnit.
type Details struct {
	Quantity     float64      `json:"quantity"`
	PricePerUnit float64      `json:"price_per_unit"`
	DirectAmount bool         `json:"direct_amount"`
	Amount       float64      `json:"amount"`
	Description  string       `json:"description"`
	Date         time.Time    `json:"date"`
	Tags         []ledger.Tag `json:"tags"`
}

// Store is the injectable draft store. One instance is shared by every
// screen in the flow; mutations are last-write-wins and readers are
// expected to re-derive from DraftChange events rather than cache.
type Store struct {
	mu     sync.Mutex
	client backend.Client
	logger *zap.Logger

	changed   *events.Notifier[DraftChange]
	completed *events.Notifier[backend.CommitResult]

	step       Step
	sender     *ledger.UserRef
	draft      ledger.CompositeDraft
	submitting bool
}

// NewStore creates a store publishing on the given registry.
func NewStore(client backend.Client, registry *events.Registry, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client:    client,
		logger:    logger,
		changed:   NewDraftChangedNotifier(registry),
		completed: NewSaleCompletedNotifier(registry),
		step:      StepEmpty,
	}
}

// Step returns the current step.
func (s *Store) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Snapshot returns the current step and a deep copy of the draft.
func (s *Store) Snapshot() (Step, ledger.CompositeDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step, s.draft.Clone()
}

// Sender returns the pending sender, if one has been chosen.
func (s *Store) Sender() *ledger.UserRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sender == nil {
		return nil
	}
	u := *s.sender
	return &u
}

// ChooseSender starts a new flow: records the sender whose work is being
// sold and opens an empty draft.
func (s *Store) ChooseSender(sender ledger.UserRef) error {
	s.mu.Lock()
	if !canMove(s.step, StepSenderChosen) {
		s.mu.Unlock()
		return fmt.Errorf("%w: choose sender from %s", ErrInvalidStep, s.step)
	}
	s.sender = &sender
	s.draft = ledger.CompositeDraft{}
	s.step = StepSenderChosen
	change := s.changeLocked()
	s.mu.Unlock()

	s.logger.Info("wizard sender chosen", zap.String("user_id", sender.ID))
	s.changed.Notify(change)
	return nil
}

// ChooseType sets the work type on the last line, creating the line for
// the pending sender when none exists yet. Re-choosing while already at
// the type step replaces the last line's type.
func (s *Store) ChooseType(t ledger.WorkTypeRef) error {
	s.mu.Lock()
	if !canMove(s.step, StepTypeChosen) {
		s.mu.Unlock()
		return fmt.Errorf("%w: choose type from %s", ErrInvalidStep, s.step)
	}
	if len(s.draft.Works) == 0 {
		s.draft.Works = []ledger.WorkLine{{Type: t, User: *s.sender}}
	} else {
		s.draft.Works[len(s.draft.Works)-1].Type = t
	}
	s.step = StepTypeChosen
	change := s.changeLocked()
	s.mu.Unlock()

	s.logger.Info("wizard work type chosen", zap.String("work_type_id", t.ID))
	s.changed.Notify(change)
	return nil
}

// ChooseReceiver sets the sale's receiving user.
func (s *Store) ChooseReceiver(receiver ledger.UserRef) error {
	s.mu.Lock()
	if !canMove(s.step, StepReceiverChosen) {
		s.mu.Unlock()
		return fmt.Errorf("%w: choose receiver from %s", ErrInvalidStep, s.step)
	}
	s.draft.Sale.User = &receiver
	s.step = StepReceiverChosen
	change := s.changeLocked()
	s.mu.Unlock()

	s.logger.Info("wizard receiver chosen", zap.String("user_id", receiver.ID))
	s.changed.Notify(change)
	return nil
}

// ApplyAttendance is the shortcut past the receiver screen: it replaces
// the draft's lines with one line per attending user, quantity equal to
// the number of dates attended, all carrying the chosen work type, and
// sets the receiver in the same move.
func (s *Store) ApplyAttendance(receiver ledger.UserRef, entries []AttendanceEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: attendance requires at least one entry", ledger.ErrValidation)
	}

	s.mu.Lock()
	if !canMove(s.step, StepReceiverChosen) {
		s.mu.Unlock()
		return fmt.Errorf("%w: apply attendance from %s", ErrInvalidStep, s.step)
	}
	workType := s.draft.Works[len(s.draft.Works)-1].Type
	works := make([]ledger.WorkLine, 0, len(entries))
	for _, e := range entries {
		works = append(works, ledger.WorkLine{
			Type:     workType,
			User:     e.User,
			Quantity: float64(len(e.Dates)),
		})
	}
	s.draft.Works = works
	s.draft.Sale.User = &receiver
	s.step = StepReceiverChosen
	change := s.changeLocked()
	s.mu.Unlock()

	s.logger.Info("wizard attendance applied",
		zap.Int("line_count", len(works)),
		zap.String("receiver_id", receiver.ID),
	)
	s.changed.Notify(change)
	return nil
}

// EnterDetails fills quantity, price, amount, date, description and tags
// uniformly across all current work lines. Re-entry before submission
// overwrites the previous details.
func (s *Store) EnterDetails(d Details) error {
	if !d.DirectAmount && d.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than zero", ledger.ErrValidation)
	}
	if d.DirectAmount && d.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", ledger.ErrValidation)
	}

	s.mu.Lock()
	if !canMove(s.step, StepDetailsEntered) {
		s.mu.Unlock()
		return fmt.Errorf("%w: enter details from %s", ErrInvalidStep, s.step)
	}
	for i := range s.draft.Works {
		line := &s.draft.Works[i]
		if d.DirectAmount {
			line.SetDirectAmount(d.Amount)
		} else {
			// Attendance lines keep their per-user quantity; single-line
			// drafts take the entered one.
			qty := line.Quantity
			if len(s.draft.Works) == 1 || qty <= 0 {
				qty = d.Quantity
			}
			line.SetDetails(qty, d.PricePerUnit)
		}
		line.Description = d.Description
		line.Date = d.Date
		line.Tags = append([]ledger.Tag(nil), d.Tags...)
	}
	s.draft.Sale.Date = d.Date
	s.draft.Sale.Tags = append([]ledger.Tag(nil), d.Tags...)
	s.step = StepDetailsEntered
	change := s.changeLocked()
	s.mu.Unlock()

	s.changed.Notify(change)
	return nil
}

// Submit validates the draft locally and commits it to the backend as
// one request. Validation failures never reach the network. A backend
// failure leaves the draft editable at the details step; success freezes
// it, records the committed sale ID and publishes the result on
// ChannelSaleCompleted.
func (s *Store) Submit(ctx context.Context) (backend.CommitResult, error) {
	s.mu.Lock()
	if !canMove(s.step, StepSubmitted) {
		s.mu.Unlock()
		return backend.CommitResult{}, fmt.Errorf("%w: submit from %s", ErrInvalidStep, s.step)
	}
	if s.submitting {
		s.mu.Unlock()
		return backend.CommitResult{}, ErrSubmitInFlight
	}
	if err := ledger.ValidateForCommit(s.draft); err != nil {
		s.mu.Unlock()
		return backend.CommitResult{}, err
	}
	s.submitting = true
	draft := s.draft.Clone()
	s.mu.Unlock()

	result, err := s.client.CreateSale(ctx, draft)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("wizard commit failed", zap.Error(err))
		return backend.CommitResult{}, err
	}
	s.draft.ID = result.SaleID
	s.step = StepSubmitted
	change := s.changeLocked()
	s.mu.Unlock()

	s.logger.Info("wizard sale committed",
		zap.String("sale_id", result.SaleID),
		zap.Int("work_count", len(result.WorkIDs)),
	)
	s.changed.Notify(change)
	s.completed.Notify(result)
	return result, nil
}

// AddMoreWork re-opens a committed sale: the sale fields are copied
// verbatim into a fresh draft carrying the same ID, the work lines
// reset, and the flow restarts at type selection with the same sender.
func (s *Store) AddMoreWork() error {
	s.mu.Lock()
	if s.step != StepSubmitted {
		s.mu.Unlock()
		return fmt.Errorf("%w: add more work from %s", ErrInvalidStep, s.step)
	}
	saleID := s.draft.ID
	s.draft = ledger.CompositeDraft{
		ID:    saleID,
		Sale:  s.draft.Clone().Sale,
		Works: []ledger.WorkLine{},
	}
	s.step = StepSenderChosen
	change := s.changeLocked()
	s.mu.Unlock()

	s.logger.Info("wizard re-opened for more work", zap.String("sale_id", saleID))
	s.changed.Notify(change)
	return nil
}

// Reset abandons the flow and returns to the empty step. Not allowed
// while a submission is in flight.
func (s *Store) Reset() error {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	s.sender = nil
	s.draft = ledger.CompositeDraft{}
	s.step = StepEmpty
	change := s.changeLocked()
	s.mu.Unlock()

	s.changed.Notify(change)
	return nil
}

func (s *Store) changeLocked() DraftChange {
	return DraftChange{Step: s.step, Draft: s.draft.Clone()}
}
