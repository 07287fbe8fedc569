package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"sync"
	"time"
)

const (
	csrfTokenBytes = 32
	// csrfIdleTimeout evicts tokens of sessions that ended without a
	// logout. It exceeds any session lifetime the console grants.
	csrfIdleTimeout = 24 * time.Hour
)

// CSRFStore issues one anti-forgery token per login session. A token lives
// as long as its session, so any page rendered for the session can still
// be submitted. Tokens are dropped when the session ends or after sitting
// unused for csrfIdleTimeout.
type CSRFStore struct {
	mu      sync.Mutex
	tokens  map[string]csrfToken
	nowTime func() time.Time
	done    chan struct{}
	once    sync.Once
}

type csrfToken struct {
	token    string
	lastUsed time.Time
}

// NewCSRFStore creates a store and starts its cleanup loop; call Close to stop it
func NewCSRFStore() *CSRFStore {
	c := &CSRFStore{
		tokens:  make(map[string]csrfToken),
		nowTime: time.Now,
		done:    make(chan struct{}),
	}
	go c.cleanup(10 * time.Minute)
	return c
}

// Token returns the session's current token, creating one when needed
func (c *CSRFStore) Token(sessionID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowTime()
	t, ok := c.tokens[sessionID]
	if !ok {
		b := make([]byte, csrfTokenBytes)
		_, _ = rand.Read(b)
		t.token = hex.EncodeToString(b)
	}
	t.lastUsed = now
	c.tokens[sessionID] = t
	return t.token
}

// Validate reports whether token is the session's token
func (c *CSRFStore) Validate(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tokens[sessionID]
	if !ok || subtle.ConstantTimeCompare([]byte(t.token), []byte(token)) != 1 {
		return false
	}
	t.lastUsed = c.nowTime()
	c.tokens[sessionID] = t
	return true
}

// Invalidate drops the session's token. It has the SessionEndFunc signature.
func (c *CSRFStore) Invalidate(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, sessionID)
}

func (c *CSRFStore) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *CSRFStore) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictIdle()
		}
	}
}

// evictIdle drops tokens unused for csrfIdleTimeout and returns how many
func (c *CSRFStore) evictIdle() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowTime()
	evicted := 0
	for id, t := range c.tokens {
		if now.Sub(t.lastUsed) >= csrfIdleTimeout {
			delete(c.tokens, id)
			evicted++
		}
	}
	return evicted
}
