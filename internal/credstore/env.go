package credstore

import (
	"context"
	"fmt"
	"os"
)

// EnvStore provides read-only access to a voter identifier provisioned
// through an environment variable. It holds no other keys.
type EnvStore struct {
	envKey string
}

// Compile-time check to ensure EnvStore implements Backend
var _ Backend = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore for the given environment variable.
// The variable may be unset, which reads as an unregistered device.
func NewEnvStore(envKey string) (*EnvStore, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	return &EnvStore{
		envKey: envKey,
	}, nil
}

// Name implements Backend.
func (e *EnvStore) Name() string {
	return "env"
}

// Get returns the voter identifier from the environment variable.
func (e *EnvStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if key != KeyVoterID {
		return "", ErrNotFound
	}

	value, ok := os.LookupEnv(e.envKey)
	if !ok || value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// Put is not supported for environment variables.
func (e *EnvStore) Put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return ErrReadOnly
}
