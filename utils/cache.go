package utils

import (
	"sync"
	"time"

	"tablejack/models"
)

// LeaderboardCache keeps the last leaderboard query result for a short TTL
// so the read endpoint doesn't hit Postgres on every poll.
type LeaderboardCache struct {
	mu        sync.RWMutex
	users     []models.User
	expiresAt time.Time
	ttl       time.Duration

	cleanupTicker *time.Ticker
	done          chan struct{}
}

// NewLeaderboardCache builds a cache with the given TTL and starts the
// background expiry sweep.
func NewLeaderboardCache(ttl time.Duration) *LeaderboardCache {
	c := &LeaderboardCache{
		ttl:  ttl,
		done: make(chan struct{}),
	}
	c.cleanupTicker = time.NewTicker(5 * time.Minute)
	go c.cleanupRoutine()
	return c
}

// Get returns the cached entries, or false when expired or never set.
func (c *LeaderboardCache) Get() ([]models.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.users == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.users, true
}

// Set stores a fresh result.
func (c *LeaderboardCache) Set(users []models.User) {
	c.mu.Lock()
	c.users = users
	c.expiresAt = time.Now().Add(c.ttl)
	c.mu.Unlock()
}

// Close stops the cleanup routine.
func (c *LeaderboardCache) Close() {
	c.cleanupTicker.Stop()
	close(c.done)
}

func (c *LeaderboardCache) cleanupRoutine() {
	for {
		select {
		case <-c.cleanupTicker.C:
			c.mu.Lock()
			if time.Now().After(c.expiresAt) {
				c.users = nil
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}
