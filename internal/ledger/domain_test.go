package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{150, 150},
		{1.2345, 1.23},
		{83.3325, 83.33},
		{-1.2345, -1.23},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Round2(tc.in), "Round2(%v)", tc.in)
	}
}

func TestSetDetailsKeepsAmountInvariant(t *testing.T) {
	var w WorkLine
	w.SetDetails(3, 50)

	assert.Equal(t, 3.0, w.Quantity)
	assert.Equal(t, 50.0, w.PricePerUnit)
	assert.Equal(t, Round2(w.Quantity*w.PricePerUnit), w.Amount)
	assert.False(t, w.DirectAmount)

	// Every re-entry recomputes; no stale amount survives.
	w.SetDetails(2.5, 33.333)
	assert.Equal(t, 83.33, w.Amount)
}

func TestSetDirectAmount(t *testing.T) {
	var w WorkLine
	w.SetDirectAmount(120.5)

	assert.True(t, w.DirectAmount)
	assert.Equal(t, 1.0, w.Quantity)
	assert.Equal(t, 120.5, w.PricePerUnit)
	assert.Equal(t, 120.5, w.Amount)
}

func TestValidateForCommit(t *testing.T) {
	receiver := &UserRef{ID: "u2", Name: "Receiver"}
	validLine := WorkLine{
		User:         UserRef{ID: "u1"},
		Quantity:     3,
		PricePerUnit: 50,
		Amount:       150,
	}

	cases := []struct {
		name    string
		draft   CompositeDraft
		wantErr bool
	}{
		{
			name:    "valid",
			draft:   CompositeDraft{Sale: SaleDraft{User: receiver}, Works: []WorkLine{validLine}},
			wantErr: false,
		},
		{
			name:    "missing receiver",
			draft:   CompositeDraft{Works: []WorkLine{validLine}},
			wantErr: true,
		},
		{
			name:    "no work lines",
			draft:   CompositeDraft{Sale: SaleDraft{User: receiver}},
			wantErr: true,
		},
		{
			name: "zero quantity",
			draft: CompositeDraft{
				Sale:  SaleDraft{User: receiver},
				Works: []WorkLine{{User: UserRef{ID: "u1"}, Quantity: 0, Amount: 10}},
			},
			wantErr: true,
		},
		{
			name: "negative amount",
			draft: CompositeDraft{
				Sale:  SaleDraft{User: receiver},
				Works: []WorkLine{{User: UserRef{ID: "u1"}, Quantity: 1, Amount: -1}},
			},
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateForCommit(tc.draft)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	draft := CompositeDraft{
		ID: "sale-1",
		Sale: SaleDraft{
			User: &UserRef{ID: "u2"},
			Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Tags: []Tag{{ID: "t1", Name: "field"}},
		},
		Works: []WorkLine{{User: UserRef{ID: "u1"}, Tags: []Tag{{ID: "t1"}}}},
	}

	clone := draft.Clone()
	clone.Sale.User.ID = "changed"
	clone.Sale.Tags[0].Name = "changed"
	clone.Works[0].Tags[0].ID = "changed"

	assert.Equal(t, "u2", draft.Sale.User.ID)
	assert.Equal(t, "field", draft.Sale.Tags[0].Name)
	assert.Equal(t, "t1", draft.Works[0].Tags[0].ID)
}
