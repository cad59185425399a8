// Package quota provides per-caller usage tracking and limits.
package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bigneek/primeflare/pkg/callerctx"
	"github.com/bigneek/primeflare/pkg/storage"
)

// ErrExceeded is wrapped by every quota rejection.
var ErrExceeded = errors.New("quota exceeded")

// Usage holds per-caller usage stats.
type Usage struct {
	CallerID     string    `json:"caller_id"`
	Requests     int64     `json:"requests"`
	LargestIndex int64     `json:"largest_index"`
	LastUsed     time.Time `json:"last_used"`
	CreatedAt    time.Time `json:"created_at"`
}

// Limits defines per-caller quotas. Zero = unlimited.
type Limits struct {
	MaxIndex    int64 // largest zero-based index a caller may request
	MaxRequests int64
}

// Manager tracks and enforces per-caller quotas. mu guards the
// load-check-save of Reserve within one process.
type Manager struct {
	store  storage.ObjectStore
	bucket string
	limits Limits
	mu     sync.Mutex
}

// NewManager creates a quota manager. A nil store disables persistence:
// every caller starts fresh and nothing is recorded.
func NewManager(store storage.ObjectStore, bucket string, limits Limits) *Manager {
	return &Manager{
		store:  store,
		bucket: bucket,
		limits: limits,
	}
}

// Limits returns the configured limits.
func (m *Manager) Limits() Limits {
	return m.limits
}

func (m *Manager) key(callerID string) string {
	return fmt.Sprintf("callers/%s/quota.json", callerID)
}

// Load loads usage for a caller. A caller with no record gets zero usage.
func (m *Manager) Load(ctx context.Context, callerID string) (*Usage, error) {
	if !callerctx.ValidID(callerID) {
		return nil, fmt.Errorf("quota: invalid caller id %q", callerID)
	}
	fresh := &Usage{CallerID: callerID, CreatedAt: time.Now()}
	if m.store == nil {
		return fresh, nil
	}
	data, err := m.store.DownloadObject(ctx, m.bucket, m.key(callerID))
	if errors.Is(err, storage.ErrNotFound) {
		return fresh, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load quota for %s: %w", callerID, err)
	}
	var u Usage
	if err := json.Unmarshal(data, &u); err != nil {
		// A corrupt record is replaced on the next Save.
		return fresh, nil
	}
	return &u, nil
}

// Save persists usage.
func (m *Manager) Save(ctx context.Context, u *Usage) error {
	if m.store == nil {
		return nil
	}
	u.LastUsed = time.Now()
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return m.store.UploadObject(ctx, m.bucket, m.key(u.CallerID), data)
}

// Reserve charges one request for index to the caller, or returns an error
// wrapping ErrExceeded without charging. The check and the increment happen
// under one lock, so concurrent requests from the same caller cannot all
// pass on the same stale count. Call it before computing.
func (m *Manager) Reserve(ctx context.Context, callerID string, index int64) error {
	if !callerctx.ValidID(callerID) {
		return fmt.Errorf("quota: invalid caller id %q", callerID)
	}
	if m.limits.MaxIndex > 0 && index > m.limits.MaxIndex {
		return fmt.Errorf("%w: index %d above limit %d", ErrExceeded, index, m.limits.MaxIndex)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, err := m.Load(ctx, callerID)
	if err != nil {
		return err
	}
	if m.limits.MaxRequests > 0 && u.Requests+1 > m.limits.MaxRequests {
		return fmt.Errorf("%w: requests (%d/%d)", ErrExceeded, u.Requests+1, m.limits.MaxRequests)
	}
	u.Requests++
	u.LargestIndex = max(u.LargestIndex, index)
	return m.Save(ctx, u)
}
