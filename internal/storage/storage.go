package storage

import (
	"context"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/state"
	"github.com/google/uuid"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// Storage persists shift sessions and serves static game content.
type Storage interface {
	HealthChecker
	Closer

	// SaveShift saves a shift with the given ID
	SaveShift(ctx context.Context, id uuid.UUID, gs *state.GameState) error

	// LoadShift retrieves a shift by ID
	// Returns nil if the shift doesn't exist
	LoadShift(ctx context.Context, id uuid.UUID) (*state.GameState, error)

	// DeleteShift removes a shift by ID
	DeleteShift(ctx context.Context, id uuid.UUID) error

	// ListGuidelines returns every guideline, ordered by ID
	ListGuidelines(ctx context.Context) ([]guideline.Guideline, error)

	// ListPassengers returns every passenger definition, ordered by ID
	ListPassengers(ctx context.Context) ([]passenger.Passenger, error)
}
