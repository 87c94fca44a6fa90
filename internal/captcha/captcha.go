// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package captcha provides the one-shot registration challenge gate.
//
// A challenge stays PENDING until it is answered correctly: a wrong answer
// leaves the entry in place so the form can be retried with the same id,
// and a correct answer consumes the entry so it can never succeed twice.
package captcha

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Challenge configuration.
const (
	CodeLength = 5
	DefaultTTL = 10 * time.Minute
)

// codeAlphabet matches the rendered glyph set: uppercase letters and digits.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Store holds pending challenges. Implementations must make Verify's
// compare-and-delete linearizable per id so racing verifies on the same
// challenge yield at most one success.
type Store interface {
	// Put registers a pending challenge.
	Put(id, code string, expiresAt time.Time)

	// Verify checks an answer against the pending challenge. The answer is
	// trimmed and compared case-insensitively. On match the entry is
	// consumed; on mismatch it stays pending and retryable. Unknown and
	// expired ids return false.
	Verify(id, answer string) bool

	// Sweep removes expired entries and returns the count removed.
	Sweep(now time.Time) int
}

// MemoryStore is a mutex-guarded in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	pending map[string]entry
}

type entry struct {
	code      string
	expiresAt time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pending: make(map[string]entry)}
}

// Put registers a pending challenge.
func (s *MemoryStore) Put(id, code string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[id] = entry{code: code, expiresAt: expiresAt}
}

// Verify checks an answer and consumes the entry on match. The compare and
// the delete happen under the same lock.
func (s *MemoryStore) Verify(id, answer string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[id]
	if !ok {
		return false
	}
	if !e.expiresAt.After(time.Now()) {
		delete(s.pending, id)
		return false
	}
	if !strings.EqualFold(e.code, strings.TrimSpace(answer)) {
		return false
	}
	delete(s.pending, id)
	return true
}

// Sweep removes expired entries.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.pending {
		if !e.expiresAt.After(now) {
			delete(s.pending, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of pending challenges.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Renderer turns a challenge code into an opaque image payload. The service
// never inspects the bytes; it only hands them to the registration form.
type Renderer interface {
	Render(code string) ([]byte, error)
}

// Service issues and verifies challenges.
type Service struct {
	store    Store
	renderer Renderer
	ttl      time.Duration
}

// NewService creates a challenge service.
// Returns an error if any required dependency is nil.
func NewService(store Store, renderer Renderer, ttl time.Duration) (*Service, error) {
	if store == nil {
		return nil, oops.Errorf("challenge store is required")
	}
	if renderer == nil {
		return nil, oops.Errorf("challenge renderer is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: store, renderer: renderer, ttl: ttl}, nil
}

// Issue generates a new challenge and returns its id and rendered image.
func (s *Service) Issue() (id string, image []byte, err error) {
	code, err := generateCode()
	if err != nil {
		return "", nil, oops.Code("CAPTCHA_ISSUE_FAILED").
			With("operation", "generate code").
			Wrap(err)
	}

	image, err = s.renderer.Render(code)
	if err != nil {
		return "", nil, oops.Code("CAPTCHA_RENDER_FAILED").
			With("operation", "render challenge").
			Wrap(err)
	}

	id = ulid.Make().String()
	s.store.Put(id, code, time.Now().Add(s.ttl))
	return id, image, nil
}

// Verify checks a challenge answer. See Store.Verify for the consumption
// semantics.
func (s *Service) Verify(id, answer string) bool {
	return s.store.Verify(id, answer)
}

// generateCode produces a short random code from the challenge alphabet.
func generateCode() (string, error) {
	buf := make([]byte, CodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err //nolint:wrapcheck // Caller wraps with context-specific info
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
