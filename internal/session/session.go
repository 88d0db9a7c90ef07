// Package session keeps per-user run state between requests.
package session

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ekisa-team/paravox/internal/batch"
)

// Error definitions for the session package.
var (
	ErrNotFound = errors.New("session not found")
	ErrBusy     = errors.New("a generation is already running for this session")
)

// RunState holds the results of the latest generation in a session.
type RunState struct {
	CompletedAt        *time.Time              `json:"completed_at,omitempty"`
	VoiceReferenceName string                  `json:"voice_reference,omitempty"`
	Results            []batch.ParagraphResult `json:"results"`
	Exaggeration       float64                 `json:"exaggeration"`
	CFGWeight          float64                 `json:"cfg_weight"`
	Characters         int                     `json:"characters"`
}

// Session is one user's workspace. Its RunState starts empty, is replaced
// wholesale by each run and cleared by Reset.
type Session struct {
	CreatedAt time.Time
	ID        string
	run       RunState
	busy      bool
	mu        sync.RWMutex
}

// New creates a session with a fresh ID.
func New() *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
}

// Begin marks the session as generating. It fails with ErrBusy when a run
// is already in progress; callers must call End when done.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

// End clears the generating flag.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy = false
}

// Busy reports whether a run is in progress.
func (s *Session) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.busy
}

// Replace swaps in the state of a completed run.
func (s *Session) Replace(run RunState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.CompletedAt == nil {
		now := time.Now()
		run.CompletedAt = &now
	}
	run.Results = slices.Clone(run.Results)
	s.run = run
}

// Reset clears the run state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.run = RunState{}
}

// Run returns a copy of the current run state.
func (s *Session) Run() RunState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run := s.run
	run.Results = slices.Clone(s.run.Results)
	return run
}

// Result returns the paragraph with the given 1-based index.
func (s *Session) Result(index int) (batch.ParagraphResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 1 || index > len(s.run.Results) {
		return batch.ParagraphResult{}, false
	}
	return s.run.Results[index-1], true
}
