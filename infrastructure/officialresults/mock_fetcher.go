package officialresults

import (
	"context"
	"sync"
	"time"
)

// MockFetcher provides a configurable mock implementation of Fetcher for
// testing. It allows precise control over response behavior, timing and
// error conditions.
type MockFetcher struct {
	mu sync.Mutex

	// Response configuration
	Body          []byte
	Bodies        map[string][]byte
	Error         error
	ResponseDelay time.Duration

	// FailUntilAttempt fails the first N calls with Error, then succeeds.
	FailUntilAttempt int

	// Tracking
	CallCount      int
	Paths          []string
	CallTimestamps []time.Time
}

// NewMockFetcher creates a mock that returns body for every path.
func NewMockFetcher(body []byte) *MockFetcher {
	return &MockFetcher{Body: body}
}

// Fetch implements the Fetcher interface with configurable behavior.
func (m *MockFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	m.CallCount++
	call := m.CallCount
	m.Paths = append(m.Paths, path)
	m.CallTimestamps = append(m.CallTimestamps, time.Now())
	delay := m.ResponseDelay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Error != nil && (m.FailUntilAttempt == 0 || call <= m.FailUntilAttempt) {
		return nil, m.Error
	}
	if b, ok := m.Bodies[path]; ok {
		return b, nil
	}
	return m.Body, nil
}

// Name returns the mock source name.
func (m *MockFetcher) Name() string { return "mock" }

// GetCallCount returns the number of times Fetch was called.
func (m *MockFetcher) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}
