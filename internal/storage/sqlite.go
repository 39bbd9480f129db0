package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rusenback/hostmon/internal/model"
)

// TimeRange represents different time window options
type TimeRange int

const (
	Range30Min TimeRange = iota
	Range1Hour
	Range6Hour
	Range1Day
	Range1Week
)

// TimeRanges lists every range in display order
var TimeRanges = []TimeRange{Range30Min, Range1Hour, Range6Hour, Range1Day, Range1Week}

func (t TimeRange) String() string {
	switch t {
	case Range30Min:
		return "30min"
	case Range1Hour:
		return "1hour"
	case Range6Hour:
		return "6hours"
	case Range1Day:
		return "1day"
	case Range1Week:
		return "1week"
	default:
		return "unknown"
	}
}

// Duration returns the time duration for the range
func (t TimeRange) Duration() time.Duration {
	switch t {
	case Range30Min:
		return 30 * time.Minute
	case Range1Hour:
		return 1 * time.Hour
	case Range6Hour:
		return 6 * time.Hour
	case Range1Day:
		return 24 * time.Hour
	case Range1Week:
		return 7 * 24 * time.Hour
	default:
		return 30 * time.Minute
	}
}

// bucket returns the aggregation bucket width in seconds, 0 for full resolution
func (t TimeRange) bucket() int64 {
	switch t {
	case Range1Hour:
		return 30
	case Range6Hour:
		return 300
	case Range1Day:
		return 600
	case Range1Week:
		return 3600
	default:
		return 0
	}
}

// DataPoint is one (possibly averaged) point of a stored time range
type DataPoint struct {
	Timestamp  time.Time
	CPUPercent float64
	MemPercent float64
}

// PersistenceError reports a failed store operation
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

const (
	busyTimeout   = 5 * time.Second
	insertRetries = 5
)

// Store is the append-only sample log
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database at path and ensures the schema.
// The parent directory must exist.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn, err := dataSourceName(path)
	if err != nil {
		return nil, &PersistenceError{Op: "open", Err: err}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &PersistenceError{Op: "open", Err: err}
	}
	// One writer; keeps SQLITE_BUSY to other processes sharing the file
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger, now: time.Now}

	ctx, cancel := context.WithTimeout(context.Background(), busyTimeout)
	defer cancel()

	if err := s.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("store opened", zap.String("path", path))
	return s, nil
}

// dataSourceName builds a file: URI for path. The path is made absolute and
// percent-encoded so '?', '#' and '%' in directory names reach SQLite intact.
func dataSourceName(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		// Windows drive letter
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		u.String(), busyTimeout.Milliseconds()), nil
}

// Initialize creates the schema. It is safe to call repeatedly and never drops rows.
func (s *Store) Initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp REAL NOT NULL,
		cpu REAL,
		mem REAL,
		net_sent INTEGER,
		net_recv INTEGER,
		processes INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_metrics_timestamp
	ON metrics(timestamp);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return &PersistenceError{Op: "initialize", Err: err}
	}
	return nil
}

// Insert appends one sample and returns its id.
// Busy or locked database errors are retried a few times with jittered backoff.
func (s *Store) Insert(ctx context.Context, sample model.Sample) (int64, error) {
	b := &backoff.Backoff{
		Min:    20 * time.Millisecond,
		Max:    500 * time.Millisecond,
		Factor: 2,
		Jitter: true,
	}

	for {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO metrics (timestamp, cpu, mem, net_sent, net_recv, processes)
			VALUES (?, ?, ?, ?, ?, ?)`,
			toSeconds(sample.Timestamp),
			sample.CPUPercent,
			sample.MemPercent,
			int64(sample.NetSent),
			int64(sample.NetRecv),
			sample.Processes,
		)
		if err == nil {
			id, err := res.LastInsertId()
			if err != nil {
				return 0, &PersistenceError{Op: "insert", Err: err}
			}
			return id, nil
		}

		if !isBusy(err) || b.Attempt() >= insertRetries {
			return 0, &PersistenceError{Op: "insert", Err: err}
		}

		wait := b.Duration()
		s.logger.Debug("database busy, retrying insert",
			zap.Duration("wait", wait), zap.Error(err))

		select {
		case <-ctx.Done():
			return 0, &PersistenceError{Op: "insert", Err: ctx.Err()}
		case <-time.After(wait):
		}
	}
}

// FetchRecent returns up to limit rows, newest first
func (s *Store) FetchRecent(ctx context.Context, limit int) ([]model.Record, error) {
	if limit <= 0 {
		return []model.Record{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, cpu, mem, net_sent, net_recv, processes
		FROM metrics
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "fetch", Err: err}
	}
	defer rows.Close()

	records := make([]model.Record, 0, limit)
	for rows.Next() {
		var (
			r          model.Record
			ts         float64
			sent, recv int64
		)
		if err := rows.Scan(&r.ID, &ts, &r.CPUPercent, &r.MemPercent, &sent, &recv, &r.Processes); err != nil {
			return nil, &PersistenceError{Op: "fetch", Err: err}
		}
		r.Timestamp = fromSeconds(ts)
		r.NetSent = uint64(sent)
		r.NetRecv = uint64(recv)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "fetch", Err: err}
	}

	return records, nil
}

// Count returns the number of stored samples
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM metrics`).Scan(&n); err != nil {
		return 0, &PersistenceError{Op: "count", Err: err}
	}
	return n, nil
}

// Query returns the samples of the last timeRange, oldest first.
// Ranges longer than 30 minutes are averaged into fixed-width buckets.
func (s *Store) Query(ctx context.Context, timeRange TimeRange) ([]DataPoint, error) {
	cutoff := toSeconds(s.now().Add(-timeRange.Duration()))

	var (
		rows *sql.Rows
		err  error
	)

	if size := timeRange.bucket(); size == 0 {
		rows, err = s.db.QueryContext(ctx, `
			SELECT timestamp, cpu, mem
			FROM metrics
			WHERE timestamp > ?
			ORDER BY timestamp ASC, id ASC`, cutoff)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT
				CAST(timestamp / ? AS INTEGER) * ? AS bucket,
				AVG(cpu) AS avg_cpu,
				AVG(mem) AS avg_mem
			FROM metrics
			WHERE timestamp > ?
			GROUP BY bucket
			ORDER BY bucket ASC`, size, size, cutoff)
	}
	if err != nil {
		return nil, &PersistenceError{Op: "query", Err: err}
	}
	defer rows.Close()

	var points []DataPoint
	for rows.Next() {
		var ts, cpu, mem float64
		if err := rows.Scan(&ts, &cpu, &mem); err != nil {
			return nil, &PersistenceError{Op: "query", Err: err}
		}
		points = append(points, DataPoint{
			Timestamp:  fromSeconds(ts),
			CPUPercent: cpu,
			MemPercent: mem,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "query", Err: err}
	}

	return points, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// toSeconds encodes t as fractional seconds since the epoch, microsecond precision
func toSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

func fromSeconds(ts float64) time.Time {
	return time.UnixMicro(int64(math.Round(ts * 1e6)))
}

func isBusy(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	switch sqlErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
