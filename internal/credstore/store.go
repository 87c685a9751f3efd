package credstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/florianilch/preverify/internal/voter"
)

// Store exposes the voter identifier and pre-verification token held by a Backend.
type Store struct {
	backend Backend
}

// New creates a Store on top of backend.
func New(backend Backend) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("missing storage backend")
	}
	return &Store{backend: backend}, nil
}

// VoterID returns the registered voter identifier, if any. Storage faults are
// logged and reported as absent: an unreadable store and an unregistered
// device lead to the same no-op.
func (s *Store) VoterID(ctx context.Context) (voter.ID, bool) {
	value, ok := s.lookup(ctx, KeyVoterID)
	id := voter.ID(value)
	if !ok || id.Empty() {
		return "", false
	}
	return id, true
}

// SetVoterID records the voter identifier at registration time.
// A blank id fails with ErrEmptyValue; backend failures are *StorageError.
func (s *Store) SetVoterID(ctx context.Context, id voter.ID) error {
	if id.Empty() {
		return fmt.Errorf("voter id: %w", ErrEmptyValue)
	}
	return s.put(ctx, "set voter id", KeyVoterID, string(id))
}

// Token returns the most recently stored pre-verification token, if any.
func (s *Store) Token(ctx context.Context) (voter.Token, bool) {
	value, ok := s.lookup(ctx, KeyToken)
	if !ok || value == "" {
		return "", false
	}
	return voter.Token(value), true
}

// StoreToken durably replaces the stored pre-verification token.
// An empty token fails with ErrEmptyValue; backend failures are *StorageError.
func (s *Store) StoreToken(ctx context.Context, token voter.Token) error {
	if token.Empty() {
		return fmt.Errorf("token: %w", ErrEmptyValue)
	}
	return s.put(ctx, "store token", KeyToken, string(token))
}

func (s *Store) lookup(ctx context.Context, key string) (string, bool) {
	value, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", false
	}
	if err != nil {
		slog.WarnContext(ctx, "credential unavailable",
			"backend", s.backend.Name(),
			"key", key,
			"error", err,
		)
		return "", false
	}
	return value, true
}

func (s *Store) put(ctx context.Context, op, key, value string) error {
	if err := s.backend.Put(ctx, key, value); err != nil {
		return &StorageError{
			Backend: s.backend.Name(),
			Op:      op,
			Key:     key,
			Err:     err,
		}
	}
	return nil
}
