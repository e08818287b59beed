package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/ports"
)

type localEntry struct {
	value     string
	expiresAt time.Time
}

// LocalCache is the in-memory fallback used when Redis is not
// configured, e.g. single-instance deploys and tests. Page-load caches
// are small, so a map with a sweeper is enough.
type LocalCache struct {
	mu     sync.RWMutex
	data   map[string]localEntry
	log    *zap.Logger
	stopCh chan struct{}
}

func NewLocalCache(sweepInterval time.Duration, log *zap.Logger) ports.Cache {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}

	c := &LocalCache{
		data:   make(map[string]localEntry),
		log:    log,
		stopCh: make(chan struct{}),
	}
	go c.sweepLoop(sweepInterval)

	log.Info("Local in-memory cache initialized",
		zap.Duration("sweep_interval", sweepInterval),
	)
	return c
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok {
		return "", fmt.Errorf("key not found: %s", key)
	}
	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		return "", fmt.Errorf("key expired: %s", key)
	}
	return entry.value, nil
}

func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	str, err := encode(value)
	if err != nil {
		return err
	}

	entry := localEntry{value: str}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}

	c.mu.Lock()
	c.data[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Ping() error { return nil }

func (c *LocalCache) Close() error {
	close(c.stopCh)
	return nil
}

func encode(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal cache value: %w", err)
		}
		return string(data), nil
	}
}

func (c *LocalCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopCh:
			return
		}
	}
}

func (c *LocalCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	swept := 0
	for key, entry := range c.data {
		if !entry.expiresAt.IsZero() && entry.expiresAt.Before(now) {
			delete(c.data, key)
			swept++
		}
	}
	if swept > 0 {
		c.log.Debug("Cache sweep completed", zap.Int("expired_entries", swept))
	}
}
