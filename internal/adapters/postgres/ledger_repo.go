package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samirrijal/tripbook/internal/core/domain"
)

// LedgerRepo implements ports.LedgerStore on the seat_ledger table. Reserve
// and Release hold the trip's ledger row lock for the whole check-and-update.
type LedgerRepo struct {
	db *DB
}

func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// Open inserts the trip's entry. An entry created lazily by a reader after the
// trip became visible takes the offset on top of what it already holds.
func (r *LedgerRepo) Open(ctx context.Context, tripID string, capacity, reserved int) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO seat_ledger (trip_id, capacity, reserved) VALUES ($1, $2, $3)
		ON CONFLICT (trip_id) DO UPDATE
		SET reserved = LEAST(seat_ledger.capacity, seat_ledger.reserved + EXCLUDED.reserved)
	`, tripID, capacity, reserved)
	return mapError(err, "ledger entry", tripID)
}

func (r *LedgerRepo) Available(ctx context.Context, tripID string) (int, error) {
	if err := r.ensure(ctx, r.db.Pool, tripID); err != nil {
		return 0, err
	}
	var available int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT capacity - reserved FROM seat_ledger WHERE trip_id = $1
	`, tripID).Scan(&available)
	return available, mapError(err, "trip", tripID)
}

func (r *LedgerRepo) Reserve(ctx context.Context, tripID, holdID string, count int) (int, error) {
	var remaining int
	err := r.inTx(ctx, tripID, func(tx pgx.Tx, capacity, reserved int) error {
		remaining = capacity - reserved

		var applied bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM seat_holds WHERE trip_id = $1 AND hold_id = $2)
		`, tripID, holdID).Scan(&applied); err != nil {
			return fmt.Errorf("reading hold: %w", err)
		}
		if applied {
			return nil
		}

		if count > remaining {
			return domain.InsufficientSeatsError{TripID: tripID, Requested: count, Remaining: remaining}
		}
		if _, err := tx.Exec(ctx, `
			UPDATE seat_ledger SET reserved = reserved + $2 WHERE trip_id = $1
		`, tripID, count); err != nil {
			return fmt.Errorf("updating ledger: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO seat_holds (trip_id, hold_id, seats) VALUES ($1, $2, $3)
		`, tripID, holdID, count); err != nil {
			return fmt.Errorf("recording hold: %w", err)
		}
		remaining -= count
		return nil
	})
	return remaining, err
}

func (r *LedgerRepo) Release(ctx context.Context, tripID, holdID string) (int, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}

	var reserved int
	err = tx.QueryRow(ctx, `
		SELECT reserved FROM seat_ledger WHERE trip_id = $1 FOR UPDATE
	`, tripID).Scan(&reserved)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, rollback(ctx, tx, nil)
	}
	if err != nil {
		return 0, rollback(ctx, tx, fmt.Errorf("locking ledger: %w", err))
	}

	var seats int
	err = tx.QueryRow(ctx, `
		DELETE FROM seat_holds WHERE trip_id = $1 AND hold_id = $2 RETURNING seats
	`, tripID, holdID).Scan(&seats)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, rollback(ctx, tx, nil)
	}
	if err != nil {
		return 0, rollback(ctx, tx, fmt.Errorf("removing hold: %w", err))
	}
	if seats > reserved {
		return 0, rollback(ctx, tx, fmt.Errorf("release %d seats on trip %s: only %d reserved", seats, tripID, reserved))
	}

	if _, err := tx.Exec(ctx, `
		UPDATE seat_ledger SET reserved = reserved - $2 WHERE trip_id = $1
	`, tripID, seats); err != nil {
		return 0, rollback(ctx, tx, fmt.Errorf("updating ledger: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return seats, nil
}

// inTx locks the ledger row for tripID and runs fn inside the transaction.
func (r *LedgerRepo) inTx(ctx context.Context, tripID string, fn func(tx pgx.Tx, capacity, reserved int) error) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := r.ensure(ctx, tx, tripID); err != nil {
		return rollback(ctx, tx, err)
	}

	var capacity, reserved int
	err = tx.QueryRow(ctx, `
		SELECT capacity, reserved FROM seat_ledger WHERE trip_id = $1 FOR UPDATE
	`, tripID).Scan(&capacity, &reserved)
	if err != nil {
		return rollback(ctx, tx, mapError(err, "trip", tripID))
	}

	if err := fn(tx, capacity, reserved); err != nil {
		return rollback(ctx, tx, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// rollback ends tx and returns err. A nil err rolls back a no-op.
func rollback(ctx context.Context, tx pgx.Tx, err error) error {
	if rbErr := tx.Rollback(ctx); rbErr != nil {
		return errors.Join(err, rbErr)
	}
	return err
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ensure creates a zero-reserved entry for a trip that has none.
func (r *LedgerRepo) ensure(ctx context.Context, q querier, tripID string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO seat_ledger (trip_id, capacity, reserved)
		SELECT id, seats_total, 0 FROM trips WHERE id = $1
		ON CONFLICT (trip_id) DO NOTHING
	`, tripID)
	return err
}
