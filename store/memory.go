package store

import (
	"context"
	"sync"

	"github.com/sportsfed/memberauth"
)

// MemoryCredentials is an in-memory CredentialStore. Safe for concurrent
// use; contents are lost with the process.
type MemoryCredentials struct {
	mu     sync.Mutex
	tokens memberauth.TokenPair
	held   bool
}

func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{}
}

func (s *MemoryCredentials) Save(_ context.Context, tokens memberauth.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = tokens
	s.held = true
	return nil
}

func (s *MemoryCredentials) Load(_ context.Context) (memberauth.TokenPair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.held {
		return memberauth.TokenPair{}, false, nil
	}
	return s.tokens, true, nil
}

func (s *MemoryCredentials) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = memberauth.TokenPair{}
	s.held = false
	return nil
}

// MemoryDrafts is an in-memory DraftStore.
type MemoryDrafts struct {
	mu            sync.Mutex
	principalType string
	record        []byte
}

func NewMemoryDrafts() *MemoryDrafts {
	return &MemoryDrafts{}
}

func (s *MemoryDrafts) SaveType(_ context.Context, principalType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.principalType = principalType
	return nil
}

func (s *MemoryDrafts) SaveRequired(_ context.Context, record []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = append([]byte(nil), record...)
	return nil
}

func (s *MemoryDrafts) Load(_ context.Context) (string, []byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.principalType == "" {
		return "", nil, false, nil
	}
	return s.principalType, append([]byte(nil), s.record...), true, nil
}

func (s *MemoryDrafts) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.principalType = ""
	s.record = nil
	return nil
}
