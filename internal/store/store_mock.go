package store

import (
	"context"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetAcquisitionStore implements the StoreManager interface.
func (m *MockStoreManager) GetAcquisitionStore() contract.AcquisitionStore {
	args := m.Called()
	s, _ := args.Get(0).(contract.AcquisitionStore)
	return s
}

// MockAcquisitionStore is a mock implementation of AcquisitionStore for testing.
type MockAcquisitionStore struct {
	mock.Mock
}

var _ contract.AcquisitionStore = &MockAcquisitionStore{} // Compile-time check

// StoreRun implements the AcquisitionStore interface.
func (m *MockAcquisitionStore) StoreRun(ctx context.Context, result *schema.AcquisitionResult, provenance map[string]string) (int64, error) {
	args := m.Called(ctx, result, provenance)
	return args.Get(0).(int64), args.Error(1)
}

// LoadRun implements the AcquisitionStore interface.
func (m *MockAcquisitionStore) LoadRun(ctx context.Context, runID int64) (*schema.AcquisitionResult, error) {
	args := m.Called(ctx, runID)
	result, _ := args.Get(0).(*schema.AcquisitionResult)
	return result, args.Error(1)
}

// RecordFinesse implements the AcquisitionStore interface.
func (m *MockAcquisitionStore) RecordFinesse(ctx context.Context, runID int64, summary schema.FinesseSummary) error {
	args := m.Called(ctx, runID, summary)
	return args.Error(0)
}

// ListRuns implements the AcquisitionStore interface.
func (m *MockAcquisitionStore) ListRuns(ctx context.Context) ([]schema.RunRecord, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]schema.RunRecord)
	return rows, args.Error(1)
}

// ListChannels implements the AcquisitionStore interface.
func (m *MockAcquisitionStore) ListChannels(ctx context.Context) ([]schema.ChannelRecord, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]schema.ChannelRecord)
	return rows, args.Error(1)
}

// ListSegments implements the AcquisitionStore interface.
func (m *MockAcquisitionStore) ListSegments(ctx context.Context) ([]schema.SegmentRecord, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]schema.SegmentRecord)
	return rows, args.Error(1)
}

// ListFinesse implements the AcquisitionStore interface.
func (m *MockAcquisitionStore) ListFinesse(ctx context.Context) ([]schema.FinesseRecord, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]schema.FinesseRecord)
	return rows, args.Error(1)
}

// GetStatus implements the AcquisitionStore interface.
func (m *MockAcquisitionStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the AcquisitionStore interface.
func (m *MockAcquisitionStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
