package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/shortlink/internal/repository"
)

// linkRecord mirrors the Redis hash layout: url, token and clicks fields.
// A record with HasToken == false is a reservation (url field only).
type linkRecord struct {
	URL      string
	Token    string
	HasToken bool
	Clicks   int64
}

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu      sync.RWMutex
	records map[string]*linkRecord

	// FailNext makes the next repository call return this error, once.
	FailNext error
	// CollideAll makes every Reserve report the key as taken.
	CollideAll bool
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		records: make(map[string]*linkRecord),
	}
}

func (m *MockLinkRepository) failNext() error {
	if err := m.FailNext; err != nil {
		m.FailNext = nil
		return err
	}
	return nil
}

func (m *MockLinkRepository) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failNext(); err != nil {
		return false, err
	}

	if _, exists := m.records[key]; exists || m.CollideAll {
		return false, nil
	}
	m.records[key] = &linkRecord{}
	return true, nil
}

func (m *MockLinkRepository) Finalize(ctx context.Context, key, url, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failNext(); err != nil {
		return err
	}

	rec, exists := m.records[key]
	if !exists {
		rec = &linkRecord{}
		m.records[key] = rec
	}
	rec.URL = url
	rec.Token = token
	rec.HasToken = true
	rec.Clicks = 0
	return nil
}

func (m *MockLinkRepository) GetURL(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.records[key]
	if !exists {
		return "", repository.ErrLinkNotFound
	}
	return rec.URL, nil
}

func (m *MockLinkRepository) GetToken(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.records[key]
	if !exists || !rec.HasToken {
		// A reserved record has no token field yet, HGET returns nil either way.
		return "", repository.ErrLinkNotFound
	}
	return rec.Token, nil
}

func (m *MockLinkRepository) GetClicks(ctx context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.records[key]
	if !exists || !rec.HasToken {
		return 0, repository.ErrLinkNotFound
	}
	return rec.Clicks, nil
}

func (m *MockLinkRepository) IncrementClicks(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failNext(); err != nil {
		return err
	}

	rec, exists := m.records[key]
	if !exists {
		rec = &linkRecord{}
		m.records[key] = rec
	}
	rec.Clicks++
	return nil
}

// ReserveOnly puts a key into the reserved-but-unfinalized state.
func (m *MockLinkRepository) ReserveOnly(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = &linkRecord{}
}

func (m *MockLinkRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]*linkRecord)
}
