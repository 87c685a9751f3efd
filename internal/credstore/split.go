package credstore

import (
	"context"
	"fmt"
)

// Split routes the voter identifier to one backend and every other key to another.
// Lets a provisioned, read-only identifier source sit beside writable token storage.
type Split struct {
	voterIDs Backend
	tokens   Backend
}

// Compile-time check to ensure Split implements Backend
var _ Backend = (*Split)(nil)

// NewSplit creates a Split backend.
func NewSplit(voterIDs, tokens Backend) (*Split, error) {
	if voterIDs == nil || tokens == nil {
		return nil, fmt.Errorf("split storage requires both backends")
	}
	return &Split{voterIDs: voterIDs, tokens: tokens}, nil
}

// Name implements Backend.
func (s *Split) Name() string {
	return s.voterIDs.Name() + "+" + s.tokens.Name()
}

// Get implements Backend.
func (s *Split) Get(ctx context.Context, key string) (string, error) {
	return s.route(key).Get(ctx, key)
}

// Put implements Backend.
func (s *Split) Put(ctx context.Context, key, value string) error {
	return s.route(key).Put(ctx, key, value)
}

func (s *Split) route(key string) Backend {
	if key == KeyVoterID {
		return s.voterIDs
	}
	return s.tokens
}
