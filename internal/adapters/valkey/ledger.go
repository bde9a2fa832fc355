package valkey

import (
	"context"
	"fmt"
	"strconv"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/core/ports"
)

// Scripts run atomically on the server, so each check-and-update on a trip's
// hash is serialized without client-side locks. Applied holds live in the same
// hash as "hold:<id>" fields.
var (
	openScript = valkey.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  redis.call('HSET', KEYS[1], 'capacity', ARGV[1], 'reserved', ARGV[2])
  return 1
end
local cap = tonumber(redis.call('HGET', KEYS[1], 'capacity'))
local res = tonumber(redis.call('HGET', KEYS[1], 'reserved'))
redis.call('HSET', KEYS[1], 'reserved', math.min(cap, res + tonumber(ARGV[2])))
return 2`)

	availableScript = valkey.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
local cap = tonumber(redis.call('HGET', KEYS[1], 'capacity'))
local res = tonumber(redis.call('HGET', KEYS[1], 'reserved'))
return cap - res`)

	reserveScript = valkey.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return {-1, 0} end
local cap = tonumber(redis.call('HGET', KEYS[1], 'capacity'))
local res = tonumber(redis.call('HGET', KEYS[1], 'reserved'))
if redis.call('HEXISTS', KEYS[1], ARGV[2]) == 1 then return {1, cap - res} end
local n = tonumber(ARGV[1])
if res + n > cap then return {0, cap - res} end
redis.call('HINCRBY', KEYS[1], 'reserved', n)
redis.call('HSET', KEYS[1], ARGV[2], n)
return {1, cap - res - n}`)

	releaseScript = valkey.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
local n = tonumber(redis.call('HGET', KEYS[1], ARGV[1]))
if not n then return 0 end
local res = tonumber(redis.call('HGET', KEYS[1], 'reserved'))
if n > res then return -2 end
redis.call('HINCRBY', KEYS[1], 'reserved', -n)
redis.call('HDEL', KEYS[1], ARGV[1])
return n`)
)

const missing = -1

// LedgerStore implements ports.LedgerStore with one Valkey hash per trip.
type LedgerStore struct {
	client valkey.Client
	trips  ports.TripRepository
}

// NewLedgerStore creates a LedgerStore. Missing entries are created from the
// capacity recorded in trips.
func NewLedgerStore(client valkey.Client, trips ports.TripRepository) *LedgerStore {
	return &LedgerStore{client: client, trips: trips}
}

func ledgerKey(tripID string) string {
	return "ledger:trip:" + tripID
}

func holdField(holdID string) string {
	return "hold:" + holdID
}

func (s *LedgerStore) Open(ctx context.Context, tripID string, capacity, reserved int) error {
	if capacity <= 0 || reserved < 0 || reserved > capacity {
		return fmt.Errorf("open ledger %s: reserved %d outside capacity %d", tripID, reserved, capacity)
	}
	err := openScript.Exec(ctx, s.client, []string{ledgerKey(tripID)},
		[]string{strconv.Itoa(capacity), strconv.Itoa(reserved)}).Error()
	if err != nil {
		return fmt.Errorf("open ledger %s: %w", tripID, err)
	}
	return nil
}

func (s *LedgerStore) Available(ctx context.Context, tripID string) (int, error) {
	for attempt := 0; ; attempt++ {
		n, err := availableScript.Exec(ctx, s.client, []string{ledgerKey(tripID)}, nil).AsInt64()
		if err != nil {
			return 0, fmt.Errorf("read ledger %s: %w", tripID, err)
		}
		if n != missing {
			return int(n), nil
		}
		if err := s.create(ctx, tripID, attempt); err != nil {
			return 0, err
		}
	}
}

func (s *LedgerStore) Reserve(ctx context.Context, tripID, holdID string, count int) (int, error) {
	for attempt := 0; ; attempt++ {
		res, err := reserveScript.Exec(ctx, s.client, []string{ledgerKey(tripID)},
			[]string{strconv.Itoa(count), holdField(holdID)}).AsIntSlice()
		if err != nil {
			return 0, fmt.Errorf("reserve on ledger %s: %w", tripID, err)
		}
		if len(res) != 2 {
			return 0, fmt.Errorf("reserve on ledger %s: unexpected reply %v", tripID, res)
		}

		switch status, remaining := res[0], int(res[1]); status {
		case 1:
			return remaining, nil
		case 0:
			return remaining, domain.InsufficientSeatsError{TripID: tripID, Requested: count, Remaining: remaining}
		}

		if err := s.create(ctx, tripID, attempt); err != nil {
			return 0, err
		}
	}
}

func (s *LedgerStore) Release(ctx context.Context, tripID, holdID string) (int, error) {
	n, err := releaseScript.Exec(ctx, s.client, []string{ledgerKey(tripID)},
		[]string{holdField(holdID)}).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("release on ledger %s: %w", tripID, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("release hold %s on trip %s: more than reserved", holdID, tripID)
	}
	return int(n), nil
}

// create opens a zero-reserved entry for a trip the ledger has not seen.
// A second miss after creating means the key vanished under us.
func (s *LedgerStore) create(ctx context.Context, tripID string, attempt int) error {
	if attempt > 0 {
		return fmt.Errorf("ledger %s: entry missing after creation", tripID)
	}
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	err = openScript.Exec(ctx, s.client, []string{ledgerKey(tripID)},
		[]string{strconv.Itoa(trip.SeatsTotal), "0"}).Error()
	if err != nil {
		return fmt.Errorf("open ledger %s: %w", tripID, err)
	}
	return nil
}
