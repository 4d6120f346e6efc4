// Package repository provides experiment state stores: a process-local
// in-memory store and a file-backed store that snapshots state to disk.
package repository

import (
	"context"
	"sync"

	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/internal/experiment"
)

// assignmentKey identifies one sticky assignment.
type assignmentKey struct {
	UserID string
	TestID string
}

// MemoryStore keeps all experiment state in process memory. Safe for
// concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	tests        map[string]experiment.Test
	assignments  map[assignmentKey]string
	observations map[string][]model.Observation
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tests:        make(map[string]experiment.Test),
		assignments:  make(map[assignmentKey]string),
		observations: make(map[string][]model.Observation),
	}
}

// PutTest inserts or replaces a test definition.
func (s *MemoryStore) PutTest(_ context.Context, t experiment.Test) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tests[t.ID] = t
	return nil
}

// GetTest returns a test by id, or experiment.ErrNotFound.
func (s *MemoryStore) GetTest(_ context.Context, testID string) (experiment.Test, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tests[testID]
	if !ok {
		return experiment.Test{}, experiment.ErrNotFound
	}
	return t, nil
}

// ListTests returns all stored tests in unspecified order.
func (s *MemoryStore) ListTests(_ context.Context) ([]experiment.Test, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tests := make([]experiment.Test, 0, len(s.tests))
	for _, t := range s.tests {
		tests = append(tests, t)
	}
	return tests, nil
}

// Assignment returns the sticky variant for (userID, testID) if one exists.
func (s *MemoryStore) Assignment(_ context.Context, userID, testID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	variantID, ok := s.assignments[assignmentKey{UserID: userID, TestID: testID}]
	return variantID, ok, nil
}

// PutAssignment records a sticky assignment. An existing assignment wins;
// the write is a no-op so the first recorded variant stays authoritative.
func (s *MemoryStore) PutAssignment(_ context.Context, userID, testID, variantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := assignmentKey{UserID: userID, TestID: testID}
	if _, ok := s.assignments[key]; ok {
		return nil
	}
	s.assignments[key] = variantID
	return nil
}

// AppendObservation appends one observation to the test's log.
func (s *MemoryStore) AppendObservation(_ context.Context, obs model.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observations[obs.TestID] = append(s.observations[obs.TestID], obs)
	return nil
}

// Observations returns a copy of the test's observation log in append order.
func (s *MemoryStore) Observations(_ context.Context, testID string) ([]model.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Observation(nil), s.observations[testID]...), nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }
