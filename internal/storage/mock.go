package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/state"
	"github.com/google/uuid"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu         sync.RWMutex
	shifts     map[uuid.UUID][]byte
	guidelines []guideline.Guideline
	passengers []passenger.Passenger
	pingError  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		shifts: make(map[uuid.UUID][]byte),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetGuidelines replaces the guideline content
func (m *MockStorage) SetGuidelines(gs []guideline.Guideline) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guidelines = gs
}

// SetPassengers replaces the passenger content
func (m *MockStorage) SetPassengers(ps []passenger.Passenger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passengers = ps
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

// SaveShift stores a JSON snapshot so later mutation of gs is not visible,
// matching the Redis implementation.
func (m *MockStorage) SaveShift(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if gs == nil {
		return errors.New("shift cannot be nil")
	}
	data, err := json.Marshal(gs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts[id] = data
	return nil
}

func (m *MockStorage) LoadShift(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	data, ok := m.shifts[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

func (m *MockStorage) DeleteShift(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shifts, id)
	return nil
}

func (m *MockStorage) ListGuidelines(ctx context.Context) ([]guideline.Guideline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.guidelines, nil
}

func (m *MockStorage) ListPassengers(ctx context.Context) ([]passenger.Passenger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.passengers, nil
}
