// Package storage persists emitted signal records to PostgreSQL. The record
// log is append-only: one row per evaluation that produced a signal, read
// back later by the digest aggregator as plain history.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"btc-signal-alerts/internal/indicator"
	"btc-signal-alerts/internal/signal"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	insertRecordSQL = `INSERT INTO signal_records (
        ts,
        kind,
        price,
        target,
        stop,
        rsi_short,
        ema_fast,
        ema_slow,
        vwap,
        atr,
        long_trend,
        rsi_long,
        reason
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
    );`

	recordColumns = `ts,
        kind,
        price,
        target,
        stop,
        rsi_short,
        ema_fast,
        ema_slow,
        vwap,
        atr,
        long_trend,
        rsi_long,
        reason`

	listAllRecordsSQL = `SELECT ` + recordColumns + `
    FROM signal_records
    ORDER BY ts;`

	listRecordsBetweenSQL = `SELECT ` + recordColumns + `
    FROM signal_records
    WHERE ts >= $1
      AND ts < $2
    ORDER BY ts;`

	listRecentRecordsSQL = `SELECT ` + recordColumns + `
    FROM signal_records
    ORDER BY ts DESC
    LIMIT $1;`

	countRecordsSQL = `SELECT COUNT(*) FROM signal_records;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// RecordStore defines the persistence operations the core relies on:
// append-once writes and ordered reads.
type RecordStore interface {
	InsertRecord(ctx context.Context, rec signal.Record) error
	ListAllRecords(ctx context.Context) ([]signal.Record, error)
	ListRecordsBetween(ctx context.Context, from, to time.Time) ([]signal.Record, error)
	ListRecentRecords(ctx context.Context, limit int) ([]signal.Record, error)
	CountRecords(ctx context.Context) (int64, error)
}

// AdvisoryLocker exposes advisory lock helpers so overlapping scanner
// processes cannot double-emit for the same slot.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store is the pgx-backed record store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertRecord appends one signal record.
func (s *Store) InsertRecord(ctx context.Context, rec signal.Record) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, insertRecordSQL,
		rec.Time.UTC(),
		string(rec.Kind),
		decimal.NewFromFloat(rec.Price).String(),
		optionalParam(rec.Target),
		optionalParam(rec.Stop),
		levelParam(rec.RSIShort),
		levelParam(rec.EMAFast),
		levelParam(rec.EMASlow),
		levelParam(rec.VWAP),
		levelParam(rec.ATR),
		string(rec.LongTrend),
		levelParam(rec.RSILong),
		rec.Reason,
	)
	if execErr != nil {
		return fmt.Errorf("insert signal record: %w", execErr)
	}
	return nil
}

// ListAllRecords returns the full historical sequence in ascending time
// order, the shape the digest aggregator consumes.
func (s *Store) ListAllRecords(ctx context.Context) ([]signal.Record, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAllRecordsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list all records: %w", queryErr)
	}
	defer rows.Close()

	return collectRecords(rows, 0)
}

// ListRecordsBetween lists records within [from, to).
func (s *Store) ListRecordsBetween(ctx context.Context, from, to time.Time) ([]signal.Record, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecordsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list records between: %w", queryErr)
	}
	defer rows.Close()

	return collectRecords(rows, 0)
}

// ListRecentRecords lists the most recent records, newest first.
func (s *Store) ListRecentRecords(ctx context.Context, limit int) ([]signal.Record, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentRecordsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent records: %w", queryErr)
	}
	defer rows.Close()

	return collectRecords(rows, limit)
}

// CountRecords counts stored records.
func (s *Store) CountRecords(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countRecordsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count records: %w", scanErr)
	}
	return count, nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a
// release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// unlock is best effort; the session drop releases it regardless
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func collectRecords(rows pgx.Rows, sizeHint int) ([]signal.Record, error) {
	records := make([]signal.Record, 0, sizeHint)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func scanRecord(rows pgx.Rows) (signal.Record, error) {
	var (
		ts        time.Time
		kind      string
		priceStr  string
		target    sql.NullString
		stop      sql.NullString
		rsiShort  sql.NullString
		emaFast   sql.NullString
		emaSlow   sql.NullString
		vwap      sql.NullString
		atr       sql.NullString
		longTrend string
		rsiLong   sql.NullString
		reason    string
	)

	if err := rows.Scan(
		&ts,
		&kind,
		&priceStr,
		&target,
		&stop,
		&rsiShort,
		&emaFast,
		&emaSlow,
		&vwap,
		&atr,
		&longTrend,
		&rsiLong,
		&reason,
	); err != nil {
		return signal.Record{}, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return signal.Record{}, fmt.Errorf("parse price: %w", err)
	}

	rec := signal.Record{
		Time:      ts.UTC(),
		Kind:      signal.Kind(kind),
		Price:     price.InexactFloat64(),
		LongTrend: signal.Trend(longTrend),
		Reason:    reason,
	}

	if rec.Target, err = scanOptional(target); err != nil {
		return signal.Record{}, fmt.Errorf("parse target: %w", err)
	}
	if rec.Stop, err = scanOptional(stop); err != nil {
		return signal.Record{}, fmt.Errorf("parse stop: %w", err)
	}
	if rec.RSIShort, err = scanLevel(rsiShort); err != nil {
		return signal.Record{}, fmt.Errorf("parse rsi_short: %w", err)
	}
	if rec.EMAFast, err = scanLevel(emaFast); err != nil {
		return signal.Record{}, fmt.Errorf("parse ema_fast: %w", err)
	}
	if rec.EMASlow, err = scanLevel(emaSlow); err != nil {
		return signal.Record{}, fmt.Errorf("parse ema_slow: %w", err)
	}
	if rec.VWAP, err = scanLevel(vwap); err != nil {
		return signal.Record{}, fmt.Errorf("parse vwap: %w", err)
	}
	if rec.ATR, err = scanLevel(atr); err != nil {
		return signal.Record{}, fmt.Errorf("parse atr: %w", err)
	}
	if rec.RSILong, err = scanLevel(rsiLong); err != nil {
		return signal.Record{}, fmt.Errorf("parse rsi_long: %w", err)
	}

	return rec, nil
}

// optionalParam maps a nullable price to its NUMERIC representation.
func optionalParam(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return decimal.NewFromFloat(*v).String()
}

// levelParam maps an undefined indicator value to NULL, never to zero.
func levelParam(l indicator.Level) interface{} {
	if v := l.Ptr(); v != nil {
		return decimal.NewFromFloat(*v).String()
	}
	return nil
}

func scanOptional(ns sql.NullString) (*float64, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	v := d.InexactFloat64()
	return &v, nil
}

func scanLevel(ns sql.NullString) (indicator.Level, error) {
	if !ns.Valid {
		return indicator.Undefined(), nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return indicator.Undefined(), err
	}
	return indicator.LevelOf(d.InexactFloat64()), nil
}

var (
	_ RecordStore    = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
)
