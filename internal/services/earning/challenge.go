package earning

import (
	"context"
	"sync"
	"time"

	"gigpay/internal/repositories/cache"
)

// Challenge is an issued arithmetic captcha. The answer never leaves the
// server.
type Challenge struct {
	ID        string    `json:"challengeId"`
	Question  string    `json:"question"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type storedChallenge struct {
	Answer int `json:"answer"`
}

// ChallengeStore holds issued challenges until they are consumed or
// expire. Take removes the challenge, so each one is answerable once.
type ChallengeStore interface {
	Put(ctx context.Context, id string, answer int, ttl time.Duration) error
	Take(ctx context.Context, id string) (answer int, ok bool, err error)
}

// redisChallengeStore keeps challenges in redis so any instance behind
// the load balancer can verify a challenge issued by another.
type redisChallengeStore struct {
	cache *cache.CacheService
}

// NewRedisChallengeStore builds a store over the shared cache service.
func NewRedisChallengeStore(c *cache.CacheService) ChallengeStore {
	return &redisChallengeStore{cache: c}
}

func (s *redisChallengeStore) key(id string) string {
	return s.cache.GenerateKey("captcha", "challenge", id)
}

func (s *redisChallengeStore) Put(ctx context.Context, id string, answer int, ttl time.Duration) error {
	return s.cache.SetWithTTL(ctx, s.key(id), storedChallenge{Answer: answer}, ttl)
}

func (s *redisChallengeStore) Take(ctx context.Context, id string) (int, bool, error) {
	var stored storedChallenge
	found, err := s.cache.GetDel(ctx, s.key(id), &stored)
	if err != nil {
		return 0, false, err
	}
	return stored.Answer, found, nil
}

// memoryChallengeStore is a single-process fallback used when redis is
// unavailable, and in tests.
type memoryChallengeStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	answer    int
	expiresAt time.Time
}

// NewMemoryChallengeStore builds an in-process store.
func NewMemoryChallengeStore() ChallengeStore {
	return &memoryChallengeStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *memoryChallengeStore) Put(ctx context.Context, id string, answer int, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{answer: answer, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryChallengeStore) Take(ctx context.Context, id string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return 0, false, nil
	}
	delete(s.entries, id)
	if s.now().After(entry.expiresAt) {
		return 0, false, nil
	}
	return entry.answer, true, nil
}
