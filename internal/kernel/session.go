package kernel

import "github.com/google/uuid"

// HistoryEntry is one completed execution in the session record.
type HistoryEntry struct {
	Count  int
	Source string
	Value  string
	OK     bool
}

// Session tracks per-process execution state. Only the shell dispatch
// goroutine mutates it, so no locking is used; see the concurrency
// notes on Server.
type Session struct {
	ID      string
	counter int
	state   ExecutionState
	history []HistoryEntry
}

func NewSession() *Session {
	return &Session{
		ID:    uuid.NewString(),
		state: StateStarting,
	}
}

// NextExecution bumps the counter exactly once per dispatched execute
// request, regardless of how the execution turns out.
func (s *Session) NextExecution() int {
	s.counter++
	return s.counter
}

func (s *Session) Counter() int {
	return s.counter
}

func (s *Session) Record(entry HistoryEntry) {
	s.history = append(s.history, entry)
}

// History returns a copy of the recorded executions.
func (s *Session) History() []HistoryEntry {
	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) State() ExecutionState {
	return s.state
}

func (s *Session) SetState(state ExecutionState) {
	s.state = state
}
