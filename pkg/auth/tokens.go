package auth

import "sync"

// TokenPair is the access/refresh credential pair issued by the server.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenStore persists the token pair for the lifetime of a session.
// Implementations must be safe for concurrent use.
type TokenStore interface {
	// Tokens returns the stored pair. Missing values are empty strings.
	Tokens() (TokenPair, error)

	// SetTokens replaces both tokens, e.g. after login or dev bootstrap.
	SetTokens(pair TokenPair) error

	// SetAccessToken replaces the access token after a refresh.
	SetAccessToken(token string) error

	// Clear removes both tokens (logout).
	Clear() error
}

// MemoryStore is an in-process TokenStore.
type MemoryStore struct {
	mu   sync.RWMutex
	pair TokenPair
}

// NewMemoryStore returns a MemoryStore seeded with pair.
func NewMemoryStore(pair TokenPair) *MemoryStore {
	return &MemoryStore{pair: pair}
}

func (s *MemoryStore) Tokens() (TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair, nil
}

func (s *MemoryStore) SetTokens(pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	return nil
}

func (s *MemoryStore) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair.AccessToken = token
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = TokenPair{}
	return nil
}
