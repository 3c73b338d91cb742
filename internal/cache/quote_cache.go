// Package cache provides the in-memory quote cache sitting in front of the
// database and scraper. Entries are keyed by symbol and quote date and
// expire after a configurable TTL.
package cache

import (
	"sync"
	"time"

	"stockwatch/pkg/contracts/domain"
)

// entry is a cached quote with its expiry
type entry struct {
	quote     domain.Quote
	cachedAt  time.Time
	expiresAt time.Time
}

// QuoteCache caches scraped quotes keyed by symbol and quote date
type QuoteCache struct {
	entries   map[string]entry
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewQuoteCache creates a quote cache with the given TTL and size cap.
// A janitor goroutine evicts expired entries until Stop is called.
func NewQuoteCache(ttl time.Duration, maxSize int) *QuoteCache {
	c := &QuoteCache{
		entries:  make(map[string]entry),
		ttl:      ttl,
		maxSize:  maxSize,
		stopChan: make(chan struct{}),
	}

	go c.janitor()

	return c
}

func key(symbol, quoteDate string) string {
	return symbol + "@" + quoteDate
}

// Get retrieves a cached quote for symbol on quoteDate
func (c *QuoteCache) Get(symbol, quoteDate string) (*domain.Quote, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, exists := c.entries[key(symbol, quoteDate)]
	if !exists || time.Now().After(e.expiresAt) {
		c.missCount++
		return nil, false
	}

	c.hitCount++
	quote := e.quote
	return &quote, true
}

// Set stores a quote under its symbol and quote date
func (c *QuoteCache) Set(quote domain.Quote) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.maxSize <= 0 {
		return
	}

	k := key(quote.Symbol, quote.QuoteDate)
	if _, exists := c.entries[k]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	c.entries[k] = entry{
		quote:     quote,
		cachedAt:  now,
		expiresAt: now.Add(c.ttl),
	}
}

// Invalidate removes a symbol's quote for the given date
func (c *QuoteCache) Invalidate(symbol, quoteDate string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key(symbol, quoteDate))
}

// Stats returns cache counters for the health endpoint
func (c *QuoteCache) Stats() map[string]interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	totalRequests := c.hitCount + c.missCount
	hitRatio := float64(0)
	if totalRequests > 0 {
		hitRatio = float64(c.hitCount) / float64(totalRequests)
	}

	return map[string]interface{}{
		"entries":     len(c.entries),
		"max_size":    c.maxSize,
		"hit_count":   c.hitCount,
		"miss_count":  c.missCount,
		"hit_ratio":   hitRatio,
		"ttl_seconds": c.ttl.Seconds(),
	}
}

func (c *QuoteCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for k, e := range c.entries {
		if oldestKey == "" || e.cachedAt.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.cachedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Stop terminates the janitor goroutine
func (c *QuoteCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *QuoteCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now()
			for k, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, k)
				}
			}
			c.mutex.Unlock()
		case <-c.stopChan:
			return
		}
	}
}
