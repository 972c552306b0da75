package temporal

import (
	"context"
	"sync"
	"time"
)

// MockScheduler is a mock implementation of Scheduler for testing.
type MockScheduler struct {
	mu        sync.Mutex
	schedules map[string]mockSchedule // map[scheduleID]schedule
	createErr error
	deleteErr error
}

type mockSchedule struct {
	interval    time.Duration
	windowHours *float64
}

// NewMockScheduler creates a new MockScheduler.
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{
		schedules: make(map[string]mockSchedule),
	}
}

// UpsertWalletSchedule creates or updates a schedule.
func (m *MockScheduler) UpsertWalletSchedule(ctx context.Context, wallet string, interval time.Duration, windowHours *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}

	m.schedules[scheduleID(wallet)] = mockSchedule{interval: interval, windowHours: windowHours}
	return nil
}

// DeleteWalletSchedule records that a schedule was deleted.
func (m *MockScheduler) DeleteWalletSchedule(ctx context.Context, wallet string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}

	id := scheduleID(wallet)
	if _, exists := m.schedules[id]; !exists {
		return ErrScheduleNotFound
	}

	delete(m.schedules, id)
	return nil
}

// SetCreateError makes UpsertWalletSchedule return an error.
func (m *MockScheduler) SetCreateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
}

// SetDeleteError makes DeleteWalletSchedule return an error.
func (m *MockScheduler) SetDeleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
}

// ScheduleExists checks if a schedule exists for a wallet.
func (m *MockScheduler) ScheduleExists(wallet string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.schedules[scheduleID(wallet)]
	return exists
}

// GetScheduleInterval returns the interval for a wallet's schedule.
func (m *MockScheduler) GetScheduleInterval(wallet string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.schedules[scheduleID(wallet)]
	return s.interval, exists
}

// GetScheduleWindow returns the window hours for a wallet's schedule.
func (m *MockScheduler) GetScheduleWindow(wallet string) *float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.schedules[scheduleID(wallet)].windowHours
}

// ScheduleCount returns the number of schedules.
func (m *MockScheduler) ScheduleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.schedules)
}

// Reset clears all schedules and errors.
func (m *MockScheduler) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules = make(map[string]mockSchedule)
	m.createErr = nil
	m.deleteErr = nil
}
