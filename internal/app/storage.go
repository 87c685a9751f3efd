package app

import (
	"fmt"
	"io"
	"os"

	"github.com/florianilch/preverify/internal/credstore"
)

// NewStore creates the credential Store described by the storage configuration.
// The returned closer releases backend resources and is never nil.
func (s *StorageConfig) NewStore() (*credstore.Store, io.Closer, error) {
	backend, closer, err := s.newBackend()
	if err != nil {
		return nil, nil, err
	}

	if s.VoterIDEnv != "" {
		voterIDs, err := credstore.NewEnvStore(s.VoterIDEnv)
		if err != nil {
			_ = closer.Close()
			return nil, nil, err
		}
		if backend, err = credstore.NewSplit(voterIDs, backend); err != nil {
			_ = closer.Close()
			return nil, nil, err
		}
	}

	store, err := credstore.New(backend)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return store, closer, nil
}

func (s *StorageConfig) newBackend() (credstore.Backend, io.Closer, error) {
	switch s.Backend {
	case StorageBackendFile:
		sealer, err := s.newSealer()
		if err != nil {
			return nil, nil, err
		}
		backend, err := credstore.NewFileStore(s.Path, sealer)
		if err != nil {
			return nil, nil, err
		}
		return backend, nopCloser{}, nil
	case StorageBackendSQLite:
		sealer, err := s.newSealer()
		if err != nil {
			return nil, nil, err
		}
		backend, err := credstore.OpenSQLiteStore(s.Path, sealer)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend, nil
	case StorageBackendKeyring:
		backend, err := credstore.NewKeyringStore(s.KeyringService)
		if err != nil {
			return nil, nil, err
		}
		return backend, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", s.Backend)
	}
}

// newSealer reads the sealing secret from the configured environment variable.
func (s *StorageConfig) newSealer() (*credstore.Sealer, error) {
	secret, ok := os.LookupEnv(s.SecretEnv)
	if !ok || secret == "" {
		return nil, fmt.Errorf("environment variable %s not set (sealing secret for %s storage)", s.SecretEnv, s.Backend)
	}
	return credstore.NewSealer([]byte(secret))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
