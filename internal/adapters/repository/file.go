package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/internal/experiment"
)

// schemaVersion tags snapshot files. Loading a file written by a different
// schema fails fast instead of silently misreading state.
const schemaVersion = 1

// snapshot is the on-disk representation of the full experiment state.
type snapshot struct {
	SchemaVersion int                            `json:"schema_version"`
	Tests         []experiment.Test              `json:"tests"`
	Assignments   []assignmentRecord             `json:"assignments"`
	Observations  map[string][]model.Observation `json:"observations"`
}

type assignmentRecord struct {
	UserID    string `json:"user_id"`
	TestID    string `json:"test_id"`
	VariantID string `json:"variant_id"`
}

// FileStore wraps a MemoryStore and persists a JSON snapshot of the full
// state to a single file after every mutation. Writes go through a temp
// file and an atomic rename, so readers never see a torn snapshot.
type FileStore struct {
	mem  *MemoryStore
	path string

	// saveMu serializes snapshot writes; state reads happen under mem's lock.
	saveMu sync.Mutex
	closed bool
}

// NewFileStore opens or creates a file-backed store at path. A missing
// file starts empty; an unreadable or version-mismatched file is an error.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{mem: NewMemoryStore(), path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadSnapshot, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: %v", ErrLoadSnapshot, err)
	}
	if snap.SchemaVersion != schemaVersion {
		return fmt.Errorf("%w: file has version %d, want %d", ErrSchemaMismatch, snap.SchemaVersion, schemaVersion)
	}

	for _, t := range snap.Tests {
		s.mem.tests[t.ID] = t
	}
	for _, a := range snap.Assignments {
		s.mem.assignments[assignmentKey{UserID: a.UserID, TestID: a.TestID}] = a.VariantID
	}
	if snap.Observations != nil {
		s.mem.observations = snap.Observations
	}
	return nil
}

// save writes the current state as a fresh snapshot. Must not be called
// while holding mem.mu.
func (s *FileStore) save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.mem.mu.RLock()
	snap := snapshot{
		SchemaVersion: schemaVersion,
		Tests:         make([]experiment.Test, 0, len(s.mem.tests)),
		Assignments:   make([]assignmentRecord, 0, len(s.mem.assignments)),
		Observations:  make(map[string][]model.Observation, len(s.mem.observations)),
	}
	for _, t := range s.mem.tests {
		snap.Tests = append(snap.Tests, t)
	}
	for key, variantID := range s.mem.assignments {
		snap.Assignments = append(snap.Assignments, assignmentRecord{
			UserID:    key.UserID,
			TestID:    key.TestID,
			VariantID: variantID,
		})
	}
	for testID, observations := range s.mem.observations {
		snap.Observations[testID] = append([]model.Observation(nil), observations...)
	}
	s.mem.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveSnapshot, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveSnapshot, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrSaveSnapshot, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrSaveSnapshot, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrSaveSnapshot, err)
	}
	return nil
}

// PutTest inserts or replaces a test definition and persists the snapshot.
func (s *FileStore) PutTest(ctx context.Context, t experiment.Test) error {
	if err := s.mem.PutTest(ctx, t); err != nil {
		return err
	}
	return s.save()
}

// GetTest returns a test by id, or experiment.ErrNotFound.
func (s *FileStore) GetTest(ctx context.Context, testID string) (experiment.Test, error) {
	return s.mem.GetTest(ctx, testID)
}

// ListTests returns all stored tests in unspecified order.
func (s *FileStore) ListTests(ctx context.Context) ([]experiment.Test, error) {
	return s.mem.ListTests(ctx)
}

// Assignment returns the sticky variant for (userID, testID) if one exists.
func (s *FileStore) Assignment(ctx context.Context, userID, testID string) (string, bool, error) {
	return s.mem.Assignment(ctx, userID, testID)
}

// PutAssignment records a sticky assignment and persists the snapshot.
func (s *FileStore) PutAssignment(ctx context.Context, userID, testID, variantID string) error {
	if err := s.mem.PutAssignment(ctx, userID, testID, variantID); err != nil {
		return err
	}
	return s.save()
}

// AppendObservation appends one observation and persists the snapshot.
func (s *FileStore) AppendObservation(ctx context.Context, obs model.Observation) error {
	if err := s.mem.AppendObservation(ctx, obs); err != nil {
		return err
	}
	return s.save()
}

// Observations returns the test's observation log in append order.
func (s *FileStore) Observations(ctx context.Context, testID string) ([]model.Observation, error) {
	return s.mem.Observations(ctx, testID)
}

// Close flushes a final snapshot and marks the store closed. Further
// mutations fail with ErrClosed.
func (s *FileStore) Close() error {
	if err := s.save(); err != nil {
		return err
	}
	s.saveMu.Lock()
	s.closed = true
	s.saveMu.Unlock()
	return nil
}
