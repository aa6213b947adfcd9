package remote

import "sync"

// TokenHolder is a synchronized single-slot holder for the current auth
// token. The sequential pipeline reads it on every call while a background
// timer replaces it on re-login; a request started just before a renewal
// may use either token, which the remote system accepts.
type TokenHolder struct {
	mu    sync.RWMutex
	token string
}

// NewTokenHolder creates an empty token holder
func NewTokenHolder() *TokenHolder {
	return &TokenHolder{}
}

// Set replaces the current token
func (h *TokenHolder) Set(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
}

// Get returns the current token
func (h *TokenHolder) Get() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}
