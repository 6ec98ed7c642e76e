package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVersionPreconditionRejectsStaleWriter(t *testing.T) {
	o := orderIn(StatusInvoiced)
	readVersion := o.Version

	// first writer lands and bumps the version
	require.NoError(t, CheckVersion(o, readVersion))
	require.NoError(t, o.RecordPayment(1000, "first", "finance", time.Now()))
	o.Version++

	// second writer still holds the pre-payment read
	require.ErrorIs(t, CheckVersion(o, readVersion), ErrConcurrencyConflict)
	// a refetch observes the updated balance and passes
	require.NoError(t, CheckVersion(o, o.Version))
}

func TestCheckVersionSkippedWhenUnset(t *testing.T) {
	o := orderIn(StatusInvoiced)
	o.Version = 7
	require.NoError(t, CheckVersion(o, -1))
}

func TestErrorKindsAreDistinguishable(t *testing.T) {
	o := orderIn(StatusManufacturing)

	var te *InvalidTransitionError
	require.ErrorAs(t, o.IssueInvoice("billing", time.Now()), &te)
	require.Equal(t, StatusManufacturing, te.From)

	var ve *ValidationError
	require.ErrorAs(t, o.SetHold(true, "", "ops", time.Now()), &ve)
	require.Equal(t, "memo", ve.Field)
}
