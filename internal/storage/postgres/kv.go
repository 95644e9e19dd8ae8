package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/marketbarrio/internal/storage"
)

const (
	getValueSQL = `SELECT value FROM kv WHERE key = $1`

	setValueSQL = `INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	listKeysSQL = `SELECT key FROM kv WHERE starts_with(key, $1) ORDER BY key`

	// Values that are not JSON arrays are skipped, as they are on load.
	orderTotalsSQL = `WITH ledgers AS MATERIALIZED (
			SELECT value::jsonb AS doc FROM kv
			WHERE right(key, length($1)) = $1 AND pg_input_is_valid(value, 'jsonb')
		)
		SELECT count(o), coalesce(sum(CASE jsonb_typeof(o->'total')
				WHEN 'number' THEN (o->>'total')::numeric
				WHEN 'string' THEN nullif(trim(o->>'total'), '')::numeric
			END), 0)
		FROM ledgers, jsonb_array_elements(
			CASE WHEN jsonb_typeof(doc) = 'array' THEN doc ELSE '[]'::jsonb END
		) AS o`
)

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Lister = (*Store)(nil)
)

// Store implements storage.Store backed by the kv table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store that uses the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Get returns the value stored under key, or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	if err := s.pool.QueryRow(ctx, getValueSQL, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", errors.Wrapf(err, "get key %q", key)
	}
	return value, nil
}

// Set upserts value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if _, err := s.pool.Exec(ctx, setValueSQL, key, value); err != nil {
		return errors.Wrapf(err, "set key %q", key)
	}
	return nil
}

// Keys returns the sorted keys starting with prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx, listKeysSQL, prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "list keys %q", prefix)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrapf(err, "list keys %q", prefix)
	}
	return keys, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// OrderTotals counts the orders held in the ledgers stored under keys ending
// with suffix and sums their totals.
func (s *Store) OrderTotals(ctx context.Context, suffix string) (count int64, total decimal.Decimal, err error) {
	if err := s.pool.QueryRow(ctx, orderTotalsSQL, suffix).Scan(&count, &total); err != nil {
		return 0, decimal.Decimal{}, errors.Wrap(err, "sum order totals")
	}
	return count, total, nil
}
