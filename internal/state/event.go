// internal/state/event.go
package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 1 << 20

// EventLog is a JSONL-backed append-only event log. All review requests share
// one file at <root>/events.jsonl; line order is the log's total order.
type EventLog struct {
	root string
	mu   sync.Mutex
	seq  int64
	now  func() time.Time
}

// NewEventLog creates a new file-backed EventLog rooted at the given directory.
func NewEventLog(root string) *EventLog {
	return &EventLog{
		root: root,
		seq:  -1,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (l *EventLog) path() string {
	return filepath.Join(l.root, "events.jsonl")
}

// Append encodes the event and appends it with the next sequence number.
func (l *EventLog) Append(_ context.Context, event events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return &types.StoreError{Op: "append", Err: fmt.Errorf("create data dir: %w", err)}
	}

	// Count existing events once to seed the sequence number
	if l.seq < 0 {
		existing, err := l.count()
		if err != nil {
			return &types.StoreError{Op: "append", Err: err}
		}
		l.seq = existing
	}

	envelope, err := events.Encode(event, l.now())
	if err != nil {
		return &types.StoreError{Op: "append", Err: err}
	}
	envelope.Seq = l.seq + 1

	data, err := json.Marshal(envelope)
	if err != nil {
		return &types.StoreError{Op: "append", Err: fmt.Errorf("marshal event: %w", err)}
	}

	f, err := os.OpenFile(l.path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &types.StoreError{Op: "append", Err: fmt.Errorf("open events file: %w", err)}
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return &types.StoreError{Op: "append", Err: fmt.Errorf("write event: %w", err)}
	}

	l.seq = envelope.Seq
	return nil
}

// Read decodes the whole file and returns the events matching the filter.
func (l *EventLog) Read(_ context.Context, filter events.Filter) ([]events.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	envelopes, err := l.load()
	if err != nil {
		return nil, &types.StoreError{Op: "read", Err: err}
	}

	scoped, hasScope := filter.ReviewRequestID()
	result := make([]events.Event, 0, len(envelopes))
	for _, envelope := range envelopes {
		if hasScope && envelope.ReviewRequestID != scoped {
			continue
		}
		event, err := events.Decode(envelope)
		if err != nil {
			return nil, &types.StoreError{Op: "read", Err: err}
		}
		if filter.Matches(event) {
			result = append(result, event)
		}
	}
	return result, nil
}

// Tail returns the last limit envelopes in the log, oldest first. A limit
// below one yields nothing.
func (l *EventLog) Tail(_ context.Context, limit int) ([]*types.Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	envelopes, err := l.load()
	if err != nil {
		return nil, &types.StoreError{Op: "tail", Err: err}
	}

	if len(envelopes) > limit {
		envelopes = envelopes[len(envelopes)-limit:]
	}
	return envelopes, nil
}

// Count returns the number of events in the log.
func (l *EventLog) Count(_ context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.count()
	if err != nil {
		return 0, &types.StoreError{Op: "count", Err: err}
	}
	return n, nil
}

// load reads every envelope in file order. Caller must hold the lock.
func (l *EventLog) load() ([]*types.Event, error) {
	f, err := os.Open(l.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	var envelopes []*types.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		var envelope types.Event
		if err := json.Unmarshal(scanner.Bytes(), &envelope); err != nil {
			return nil, fmt.Errorf("unmarshal event: %w", err)
		}
		envelopes = append(envelopes, &envelope)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan events file: %w", err)
	}
	return envelopes, nil
}

// count reads the event file and counts lines. Caller must hold the lock.
func (l *EventLog) count() (int64, error) {
	f, err := os.Open(l.path())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	var count int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan events file: %w", err)
	}
	return count, nil
}
