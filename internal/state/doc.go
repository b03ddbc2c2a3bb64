// Package state provides filesystem-backed and in-memory event logs.
package state

import "github.com/user/prereview/internal/events"

// Compile-time interface compliance checks.
var _ events.Log = (*EventLog)(nil)
var _ events.Tailer = (*EventLog)(nil)
var _ events.Log = (*MemoryLog)(nil)
var _ events.Tailer = (*MemoryLog)(nil)
