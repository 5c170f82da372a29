package wizard

import (
	"github.com/makki24/mybusiness-core/internal/backend"
	"github.com/makki24/mybusiness-core/internal/events"
	"github.com/makki24/mybusiness-core/internal/ledger"
)

// Wizard channels. These names are the contract between the wizard and
// any decoupled reader; both sides build their notifier from the same
// constant.
const (
	// ChannelDraftChanged fires after every successful draft mutation.
	ChannelDraftChanged events.Channel = "wizard.draft_changed"

	// ChannelSaleCompleted fires once per successful commit.
	ChannelSaleCompleted events.Channel = "wizard.sale_completed"
)

// DraftChange is the payload on ChannelDraftChanged: the step the store
// landed on and a snapshot of the draft after the mutation. Readers
// re-derive their state from the snapshot instead of caching copies.
type DraftChange struct {
	Step  Step
	Draft ledger.CompositeDraft
}

// NewDraftChangedNotifier builds the typed notifier for ChannelDraftChanged.
func NewDraftChangedNotifier(r *events.Registry) *events.Notifier[DraftChange] {
	return events.NewNotifier[DraftChange](r, ChannelDraftChanged)
}

// NewSaleCompletedNotifier builds the typed notifier for ChannelSaleCompleted.
func NewSaleCompletedNotifier(r *events.Registry) *events.Notifier[backend.CommitResult] {
	return events.NewNotifier[backend.CommitResult](r, ChannelSaleCompleted)
}
