package experiment

import (
	"context"

	"github.com/okian/skillsift/internal/domain/model"
)

// Store persists tests, sticky assignments, and metric observations. The
// Manager is the only writer. Implementations must round-trip all three
// stores losslessly across save/load.
type Store interface {
	// PutTest inserts or replaces a test record.
	PutTest(ctx context.Context, t Test) error

	// GetTest returns a test by id; ErrNotFound when unknown.
	GetTest(ctx context.Context, id string) (Test, error)

	// ListTests returns all tests in unspecified order.
	ListTests(ctx context.Context) ([]Test, error)

	// Assignment returns the sticky variant for (userID, testID), with
	// ok=false when no assignment exists yet.
	Assignment(ctx context.Context, userID, testID string) (string, bool, error)

	// PutAssignment records a sticky assignment. Never overwrites: a
	// second write for the same (userID, testID) pair is a no-op.
	PutAssignment(ctx context.Context, userID, testID, variantID string) error

	// AppendObservation appends one metric observation to its test's log.
	AppendObservation(ctx context.Context, obs model.Observation) error

	// Observations returns the ordered observation log for a test.
	Observations(ctx context.Context, testID string) ([]model.Observation, error)

	// Close releases store resources, flushing pending state.
	Close() error
}
