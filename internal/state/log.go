package state

import (
	"slices"
	"time"
)

// MaxLogEntries bounds the diagnostics and command logs.
const MaxLogEntries = 200

// BoundedLog keeps the most recent MaxLogEntries entries in insertion order.
type BoundedLog[T any] struct {
	entries []T
}

func (l *BoundedLog[T]) Append(v T) {
	l.entries = append(l.entries, v)
	if over := len(l.entries) - MaxLogEntries; over > 0 {
		l.entries = slices.Delete(l.entries, 0, over)
	}
}

func (l BoundedLog[T]) Len() int { return len(l.entries) }

// Entries returns the entries oldest first. The slice must not be modified.
func (l BoundedLog[T]) Entries() []T { return l.entries }

// Last returns the newest entry.
func (l BoundedLog[T]) Last() (T, bool) {
	if len(l.entries) == 0 {
		var zero T
		return zero, false
	}
	return l.entries[len(l.entries)-1], true
}

func (l BoundedLog[T]) clone() BoundedLog[T] {
	return BoundedLog[T]{entries: slices.Clone(l.entries)}
}

type DiagnosticKind uint8

const (
	DiagnosticError DiagnosticKind = iota
	DiagnosticInfo
)

func (k DiagnosticKind) String() string {
	if k == DiagnosticInfo {
		return "info"
	}
	return "error"
}

type Diagnostic struct {
	Time    time.Time
	Kind    DiagnosticKind
	Message string
}

// CommandLogEntry records one mutating command and what it reported.
type CommandLogEntry struct {
	Time    time.Time
	Action  string
	Command string
	OK      bool
	Summary string
	Stdout  string
	Stderr  string
}
