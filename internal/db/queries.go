package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Metric is one telemetry metric row.
type Metric struct {
	Name        string
	Value       float64
	Model       string
	TokenType   string
	Attributes  string
	TimestampNS int64
}

// Event is one telemetry event row.
type Event struct {
	Name        string
	Body        string
	Attributes  string
	TimestampNS int64
}

// DailyTotal is an aggregated per-day metric value.
type DailyTotal struct {
	Date  string // YYYY-MM-DD, local time of the writer
	Value float64
}

// InsertMetrics writes a batch of metric rows in a single transaction.
func (db *DB) InsertMetrics(ctx context.Context, metrics []Metric) error {
	if len(metrics) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin metrics tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO usage_metrics (name, value, model, token_type, attributes, timestamp_ns)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare metrics insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range metrics {
		attrs := m.Attributes
		if attrs == "" {
			attrs = "{}"
		}
		if _, err := stmt.ExecContext(ctx, m.Name, m.Value, m.Model, m.TokenType, attrs, m.TimestampNS); err != nil {
			return fmt.Errorf("insert metric %s: %w", m.Name, err)
		}
	}

	return tx.Commit()
}

// InsertEvent writes a single event row.
func (db *DB) InsertEvent(ctx context.Context, e Event) error {
	attrs := e.Attributes
	if attrs == "" {
		attrs = "{}"
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO usage_events (name, body, attributes, timestamp_ns)
		VALUES (?, ?, ?, ?)`,
		e.Name, e.Body, attrs, e.TimestampNS)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e.Name, err)
	}
	return nil
}

// MetricsSince returns metric rows whose name starts with prefix and whose
// timestamp is at or after sinceNS, oldest first.
func (db *DB) MetricsSince(ctx context.Context, prefix string, sinceNS int64) ([]Metric, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, value, model, token_type, attributes, timestamp_ns
		FROM usage_metrics
		WHERE name LIKE ? || '%' AND timestamp_ns >= ?
		ORDER BY timestamp_ns ASC`,
		prefix, sinceNS)
	if err != nil {
		return nil, fmt.Errorf("query metrics since: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var metrics []Metric
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.Name, &m.Value, &m.Model, &m.TokenType, &m.Attributes, &m.TimestampNS); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// EventsSince returns event rows whose name starts with prefix and whose
// timestamp is at or after sinceNS, oldest first.
func (db *DB) EventsSince(ctx context.Context, prefix string, sinceNS int64) ([]Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, body, attributes, timestamp_ns
		FROM usage_events
		WHERE name LIKE ? || '%' AND timestamp_ns >= ?
		ORDER BY timestamp_ns ASC`,
		prefix, sinceNS)
	if err != nil {
		return nil, fmt.Errorf("query events since: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Name, &e.Body, &e.Attributes, &e.TimestampNS); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DailyTotals aggregates metric values per local day for names starting with
// prefix, oldest day first. Timestamps are stored in nanoseconds, so divide
// down to seconds for sqlite's datetime conversion.
func (db *DB) DailyTotals(ctx context.Context, prefix string, sinceNS int64) ([]DailyTotal, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date(timestamp_ns / 1000000000, 'unixepoch', 'localtime') AS day,
		       SUM(value)
		FROM usage_metrics
		WHERE name LIKE ? || '%' AND timestamp_ns >= ?
		GROUP BY day
		ORDER BY day ASC`,
		prefix, sinceNS)
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []DailyTotal
	for rows.Next() {
		var d DailyTotal
		if err := rows.Scan(&d.Date, &d.Value); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		totals = append(totals, d)
	}
	return totals, rows.Err()
}

// Cleanup removes metric and event rows older than the retention window.
func (db *DB) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UnixNano()

	var removed int64
	for _, table := range []string{"usage_metrics", "usage_events"} {
		res, err := db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE timestamp_ns < ?", table), cutoff)
		if err != nil {
			return removed, fmt.Errorf("cleanup %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return removed, nil
}

// Counts returns the number of stored metric and event rows.
func (db *DB) Counts(ctx context.Context) (metrics, events int64, err error) {
	if err = db.scalar(ctx, "SELECT COUNT(*) FROM usage_metrics", &metrics); err != nil {
		return 0, 0, err
	}
	if err = db.scalar(ctx, "SELECT COUNT(*) FROM usage_events", &events); err != nil {
		return 0, 0, err
	}
	return metrics, events, nil
}

func (db *DB) scalar(ctx context.Context, query string, dest *int64) error {
	if err := db.QueryRowContext(ctx, query).Scan(dest); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("scalar query: %w", err)
	}
	return nil
}
