package reportcache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is a thread-safe in-process Layer with TTL expiration and a
// background cleanup goroutine.
type MemoryCache struct {
	mu          sync.RWMutex
	data        map[string]memoryEntry
	name        string
	cleanup     *time.Ticker
	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

type MemoryConfig struct {
	Name            string
	CleanupInterval time.Duration
}

func NewMemory(config MemoryConfig) *MemoryCache {
	if config.Name == "" {
		config.Name = "memory"
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Minute
	}

	c := &MemoryCache{
		data:        make(map[string]memoryEntry),
		name:        config.Name,
		cleanup:     time.NewTicker(config.CleanupInterval),
		stopCleanup: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return entry.payload, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c.mu.Lock()
	c.data[key] = memoryEntry{payload: payload, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Name() string { return c.name }

func (c *MemoryCache) Close() error {
	c.cleanup.Stop()
	close(c.stopCleanup)
	c.wg.Wait()
	return nil
}

func (c *MemoryCache) cleanupLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.cleanup.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.data {
				if now.After(entry.expiresAt) {
					delete(c.data, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}
