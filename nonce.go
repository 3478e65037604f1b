package onvifcam

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/elgs/gostrgen"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const nonceTableSize = 4096

// DigestChallenge is one in-flight HTTP Digest handshake: the nonce/opaque
// pair handed out in a 401 challenge, valid for one authenticated request
// within the freshness window.
type DigestChallenge struct {
	Nonce    string
	Opaque   string
	IssuedAt time.Time
}

// NonceStore tracks issued Digest nonces. Entries evict after the freshness
// window; consuming a nonce removes it so it can be accepted at most once.
type NonceStore struct {
	issued *expirable.LRU[string, DigestChallenge]
	window time.Duration
	now    func() time.Time
}

// NewNonceStore creates a nonce table whose entries expire after window.
func NewNonceStore(window time.Duration) *NonceStore {
	return &NonceStore{
		issued: expirable.NewLRU[string, DigestChallenge](nonceTableSize, nil, window),
		window: window,
		now:    time.Now,
	}
}

// Issue creates and records a fresh challenge.
func (s *NonceStore) Issue() DigestChallenge {
	ch := DigestChallenge{
		Nonce:    randomHex(16),
		Opaque:   randomOpaque(),
		IssuedAt: s.now(),
	}
	s.issued.Add(ch.Nonce, ch)
	return ch
}

// Lookup returns the challenge for a nonce if it is still fresh.
func (s *NonceStore) Lookup(nonce string) (DigestChallenge, bool) {
	ch, ok := s.issued.Get(nonce)
	if !ok {
		return DigestChallenge{}, false
	}
	if s.now().Sub(ch.IssuedAt) > s.window {
		s.issued.Remove(nonce)
		return DigestChallenge{}, false
	}
	return ch, true
}

// Consume removes a nonce, reporting whether it was still outstanding. The
// removal is a single atomic operation, so two concurrent requests racing on
// the same nonce see exactly one success.
func (s *NonceStore) Consume(nonce string) bool {
	return s.issued.Remove(nonce)
}

// ReplayCache remembers recently accepted WS-Security (nonce, created) pairs
// so a captured token cannot be replayed inside its validity window.
type ReplayCache struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

// NewReplayCache creates a replay cache whose entries expire after window,
// matching the token freshness window.
func NewReplayCache(window time.Duration) *ReplayCache {
	return &ReplayCache{
		seen: expirable.NewLRU[string, struct{}](nonceTableSize, nil, window),
	}
}

// Observe records a token identity and reports whether this is its first use.
func (c *ReplayCache) Observe(nonce, created string) bool {
	key := nonce + "|" + created
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen.Contains(key) {
		return false
	}
	c.seen.Add(key, struct{}{})
	return true
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // the platform CSPRNG is gone, nothing sensible to do
	}
	return hex.EncodeToString(buf)
}

func randomOpaque() string {
	s, err := gostrgen.RandGen(32, gostrgen.Lower|gostrgen.Upper|gostrgen.Digit, "", "")
	if err != nil {
		return randomHex(16)
	}
	return s
}
