package data

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"battery-dispatch/internal/backtest"
	"battery-dispatch/internal/dp"
	"battery-dispatch/internal/model"

	"github.com/google/uuid"
)

// Run is a solved horizon plus its replay, kept so the API can serve the
// ledger again without re-solving.
type Run struct {
	ID        string
	Key       string
	CreatedAt time.Time
	ExpiresAt time.Time

	Params   model.Params
	Series   model.Series
	Solution *dp.Solution
	Result   *backtest.Result
}

// RunStore keeps runs in memory for a limited time. Nothing is persisted.
type RunStore struct {
	mu    sync.RWMutex
	byID  map[string]*Run
	byKey map[string]string
	ttl   time.Duration
	now   func() time.Time
}

// NewRunStore returns a store whose entries expire after ttl (default 1h).
func NewRunStore(ttl time.Duration) *RunStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RunStore{
		byID:  make(map[string]*Run),
		byKey: make(map[string]string),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores run under a fresh id and returns it.
func (c *RunStore) Put(run *Run) *Run {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	run.ID = uuid.NewString()
	run.CreatedAt = now
	run.ExpiresAt = now.Add(c.ttl)
	c.byID[run.ID] = run
	if run.Key != "" {
		c.byKey[run.Key] = run.ID
	}
	return run
}

// Get retrieves a run if available and not expired.
func (c *RunStore) Get(id string) (*Run, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	run, ok := c.byID[id]
	if !ok || c.now().After(run.ExpiresAt) {
		return nil, false
	}
	return run, true
}

// Lookup finds a live run solved from identical inputs.
func (c *RunStore) Lookup(key string) (*Run, bool) {
	c.mu.RLock()
	id, ok := c.byKey[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return c.Get(id)
}

// Len is the number of stored runs, expired or not.
func (c *RunStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Prune removes expired runs.
func (c *RunStore) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, run := range c.byID {
		if now.After(run.ExpiresAt) {
			delete(c.byID, id)
			if c.byKey[run.Key] == id {
				delete(c.byKey, run.Key)
			}
		}
	}
}

// Cleanup prunes periodically until ctx is done.
func (c *RunStore) Cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Prune()
		}
	}
}

// RunKey fingerprints solve inputs so identical requests can reuse a solution.
// InitialSOC only affects the replay, so it is not part of the key.
func RunKey(p model.Params, s model.Series) string {
	p.InitialSOC = 0
	raw, err := json.Marshal(struct {
		Params model.Params
		Series model.Series
	}{p, s})
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(raw)
	return hex.EncodeToString(hash[:])
}
