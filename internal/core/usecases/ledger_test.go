package usecases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/core/usecases"
)

func TestLedger_ValidatesBeforeStore(t *testing.T) {
	called := false
	store := &mockLedgerStore{
		reserveFn: func(ctx context.Context, tripID, holdID string, count int) (int, error) {
			called = true
			return 0, nil
		},
	}
	ledger := usecases.NewLedger(store, 4)

	_, err := ledger.TryReserve(context.Background(), "t1", "b1", 5)
	assert.True(t, domain.IsValidation(err))
	_, err = ledger.TryReserve(context.Background(), "t1", "", 1)
	assert.True(t, domain.IsValidation(err))
	assert.False(t, called, "store must not be touched for invalid input")
	assert.Equal(t, 4, ledger.MaxSeats())
}

func TestLedger_DefaultMaxSeats(t *testing.T) {
	ledger := usecases.NewLedger(&mockLedgerStore{}, 0)
	assert.Equal(t, domain.DefaultMaxSeatsPerBooking, ledger.MaxSeats())
}

func TestLedger_ReleaseRestoresSeats(t *testing.T) {
	h := newHarness(t)
	id := h.addTrip(t, jakartaBandung("A", "07:30", 85000, 10))
	ledger := usecases.NewLedger(h.ledger, 0)

	remaining, err := ledger.TryReserve(context.Background(), id, "b1", 6)
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)

	require.NoError(t, ledger.Release(context.Background(), id, "b1"))
	assert.Equal(t, 10, h.available(t, id))

	// Releasing again or releasing an unknown hold changes nothing.
	require.NoError(t, ledger.Release(context.Background(), id, "b1"))
	require.NoError(t, ledger.Release(context.Background(), id, "never-held"))
	assert.Equal(t, 10, h.available(t, id))
	assert.True(t, domain.IsValidation(ledger.Release(context.Background(), id, "")))
}

func TestLedger_RetriedReservationAppliesOnce(t *testing.T) {
	h := newHarness(t)
	id := h.addTrip(t, jakartaBandung("A", "07:30", 85000, 10))
	ledger := usecases.NewLedger(h.ledger, 0)

	for i := 0; i < 3; i++ {
		remaining, err := ledger.TryReserve(context.Background(), id, "b1", 3)
		require.NoError(t, err)
		assert.Equal(t, 7, remaining)
	}
	assert.Equal(t, 3, h.ledger.Reserved(id))
}
