// Package db provides the SQLite-backed review request event log.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

// EventLog is an events.Log stored in the events table. Type and review
// request predicates are evaluated by SQLite; the full filter is applied
// again on the decoded events.
type EventLog struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ events.Log    = (*EventLog)(nil)
	_ events.Tailer = (*EventLog)(nil)
)

func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Open opens the database at path, applies migrations and returns the log.
func Open(path string) (*EventLog, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return NewEventLog(db), nil
}

func (l *EventLog) Close() error {
	return l.db.Close()
}

func (l *EventLog) Append(ctx context.Context, event events.Event) error {
	envelope, err := events.Encode(event, l.now())
	if err != nil {
		return &types.StoreError{Op: "append", Err: err}
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO events (id, type, review_request_id, recorded_at, payload)
		 VALUES (?, ?, ?, ?, ?)`,
		string(envelope.ID), envelope.Type, string(envelope.ReviewRequestID),
		envelope.At.Format(time.RFC3339Nano), string(envelope.Payload),
	)
	if err != nil {
		return &types.StoreError{Op: "append", Err: MapSQLError(err)}
	}
	return nil
}

func (l *EventLog) Read(ctx context.Context, filter events.Filter) ([]events.Event, error) {
	var (
		where []string
		args  []any
	)
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		where = append(where, "type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if id, ok := filter.ReviewRequestID(); ok {
		where = append(where, "review_request_id = ?")
		args = append(args, string(id))
	}

	query := "SELECT seq, id, type, review_request_id, recorded_at, payload FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	envelopes, err := l.query(ctx, query, args...)
	if err != nil {
		return nil, &types.StoreError{Op: "read", Err: err}
	}

	result := make([]events.Event, 0, len(envelopes))
	for _, envelope := range envelopes {
		event, err := events.Decode(envelope)
		if err != nil {
			return nil, &types.StoreError{Op: "read", Err: fmt.Errorf("event %d: %w", envelope.Seq, err)}
		}
		if filter.Matches(event) {
			result = append(result, event)
		}
	}
	return result, nil
}

// Tail returns the last limit envelopes, oldest first. SQLite reads a
// negative LIMIT as unbounded, so a limit below one is answered here.
func (l *EventLog) Tail(ctx context.Context, limit int) ([]*types.Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	envelopes, err := l.query(ctx,
		`SELECT seq, id, type, review_request_id, recorded_at, payload FROM (
			SELECT * FROM events ORDER BY seq DESC LIMIT ?
		) ORDER BY seq`, limit)
	if err != nil {
		return nil, &types.StoreError{Op: "tail", Err: err}
	}
	return envelopes, nil
}

func (l *EventLog) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, &types.StoreError{Op: "count", Err: MapSQLError(err)}
	}
	return n, nil
}

func (l *EventLog) query(ctx context.Context, query string, args ...any) ([]*types.Event, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapSQLError(err)
	}
	defer rows.Close()

	var envelopes []*types.Event
	for rows.Next() {
		var (
			envelope            types.Event
			id, reviewRequestID string
			recordedAt, payload string
		)
		if err := rows.Scan(&envelope.Seq, &id, &envelope.Type, &reviewRequestID, &recordedAt, &payload); err != nil {
			return nil, MapSQLError(err)
		}
		at, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("event %d: parse recorded_at: %w", envelope.Seq, err)
		}
		envelope.ID = types.EventID(id)
		envelope.ReviewRequestID = types.ReviewRequestID(reviewRequestID)
		envelope.At = at
		envelope.Payload = []byte(payload)
		envelopes = append(envelopes, &envelope)
	}
	if err := rows.Err(); err != nil {
		return nil, MapSQLError(err)
	}
	return envelopes, nil
}
