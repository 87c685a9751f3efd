package credstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/florianilch/preverify/internal/voter"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	sealer, err := NewSealer([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	return sealer
}

// backends returns every writable backend, each rooted in a fresh temp location.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	keyring.MockInit()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "creds"), newTestSealer(t))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	sqliteStore, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "creds.db"), newTestSealer(t))
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = sqliteStore.Close() })

	keyringStore, err := NewKeyringStore("preverify-test")
	if err != nil {
		t.Fatalf("NewKeyringStore: %v", err)
	}

	return map[string]Backend{
		"file":    fileStore,
		"sqlite":  sqliteStore,
		"keyring": keyringStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store, err := New(backend)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			if _, ok := store.VoterID(ctx); ok {
				t.Fatal("expected no voter id in fresh store")
			}
			if _, ok := store.Token(ctx); ok {
				t.Fatal("expected no token in fresh store")
			}

			if err := store.SetVoterID(ctx, "voter123"); err != nil {
				t.Fatalf("SetVoterID: %v", err)
			}
			id, ok := store.VoterID(ctx)
			if !ok || id != "voter123" {
				t.Fatalf("VoterID = %q, %v; want voter123, true", id, ok)
			}

			if err := store.StoreToken(ctx, "first-token"); err != nil {
				t.Fatalf("StoreToken: %v", err)
			}
			if err := store.StoreToken(ctx, "test-token-12345"); err != nil {
				t.Fatalf("StoreToken overwrite: %v", err)
			}
			token, ok := store.Token(ctx)
			if !ok || token != "test-token-12345" {
				t.Fatalf("Token = %q, %v; want test-token-12345, true", token, ok)
			}
		})
	}
}

func TestStoreRejectsEmptyValues(t *testing.T) {
	keyring.MockInit()
	backend, _ := NewKeyringStore("preverify-test")
	store, _ := New(backend)

	errs := map[string]error{
		"voter id": store.SetVoterID(context.Background(), " "),
		"token":    store.StoreToken(context.Background(), ""),
	}
	for name, err := range errs {
		if !errors.Is(err, ErrEmptyValue) {
			t.Errorf("%s: expected ErrEmptyValue, got %v", name, err)
		}
		var storageErr *StorageError
		if errors.As(err, &storageErr) {
			t.Errorf("%s: empty value must not reach the backend, got %v", name, err)
		}
	}
	if _, err := backend.Get(context.Background(), KeyToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected nothing written, Get error = %v", err)
	}
}

func TestSQLiteStoreCreatesParentDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "config", "preverify")
	path := filepath.Join(dir, "credentials.db")

	sqliteStore, err := OpenSQLiteStore(path, newTestSealer(t))
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = sqliteStore.Close() })

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("expected directory to be created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("directory permissions = %04o, want 0700", perm)
	}

	store, _ := New(sqliteStore)
	if err := store.SetVoterID(context.Background(), "voter123"); err != nil {
		t.Fatalf("SetVoterID: %v", err)
	}
	if id, ok := store.VoterID(context.Background()); !ok || id != "voter123" {
		t.Errorf("VoterID = %q, %v; want voter123, true", id, ok)
	}
}

func TestStoreVoterIDFaultReadsAsAbsent(t *testing.T) {
	keyring.MockInitWithError(errors.New("secret service unavailable"))
	t.Cleanup(keyring.MockInit)

	backend, _ := NewKeyringStore("preverify-test")
	store, _ := New(backend)

	if id, ok := store.VoterID(context.Background()); ok {
		t.Fatalf("VoterID = %q, expected absent on storage fault", id)
	}
}

func TestStoreTokenWrapsStorageError(t *testing.T) {
	backend, _ := NewEnvStore("PREVERIFY_TEST_VOTER_ID")
	store, _ := New(backend)

	err := store.StoreToken(context.Background(), "test-token-12345")
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected *StorageError, got %T: %v", err, err)
	}
	if storageErr.Backend != "env" || storageErr.Key != KeyToken {
		t.Errorf("unexpected error fields: %+v", storageErr)
	}
	if !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestEnvStore(t *testing.T) {
	ctx := context.Background()

	if _, err := NewEnvStore(""); err == nil {
		t.Fatal("expected error for empty env key")
	}

	backend, err := NewEnvStore("PREVERIFY_TEST_VOTER_ID")
	if err != nil {
		t.Fatalf("NewEnvStore: %v", err)
	}
	store, _ := New(backend)

	if _, ok := store.VoterID(ctx); ok {
		t.Fatal("expected absent voter id when variable is unset")
	}

	t.Setenv("PREVERIFY_TEST_VOTER_ID", "voter123")
	id, ok := store.VoterID(ctx)
	if !ok || id != "voter123" {
		t.Fatalf("VoterID = %q, %v; want voter123, true", id, ok)
	}

	if _, ok := store.Token(ctx); ok {
		t.Fatal("env storage holds no token")
	}
}

func TestSplitRoutesByKey(t *testing.T) {
	ctx := context.Background()
	t.Setenv("PREVERIFY_TEST_VOTER_ID", "voter123")

	ids, _ := NewEnvStore("PREVERIFY_TEST_VOTER_ID")
	tokens, err := NewFileStore(t.TempDir(), newTestSealer(t))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	split, err := NewSplit(ids, tokens)
	if err != nil {
		t.Fatalf("NewSplit: %v", err)
	}
	if split.Name() != "env+file" {
		t.Errorf("Name = %q, want env+file", split.Name())
	}

	store, _ := New(split)
	if id, ok := store.VoterID(ctx); !ok || id != "voter123" {
		t.Fatalf("VoterID = %q, %v", id, ok)
	}
	if err := store.StoreToken(ctx, "test-token-12345"); err != nil {
		t.Fatalf("StoreToken: %v", err)
	}
	if token, ok := store.Token(ctx); !ok || token != voter.Token("test-token-12345") {
		t.Fatalf("Token = %q, %v", token, ok)
	}
	if err := store.SetVoterID(ctx, "other"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("SetVoterID through env should be read-only, got %v", err)
	}
}

func TestFileStorePermissions(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	backend, err := NewFileStore(dir, newTestSealer(t))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := backend.Put(ctx, KeyToken, "test-token-12345"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	path := filepath.Join(dir, KeyToken)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("mode = %04o, want 0600", info.Mode().Perm())
	}

	data, _ := os.ReadFile(path)
	if string(data) == "test-token-12345\n" {
		t.Fatal("token stored in plaintext")
	}

	if err := os.Chmod(path, 0644); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if _, err := backend.Get(ctx, KeyToken); err == nil {
		t.Fatal("expected error for insecure permissions")
	}
}

func TestFileStoreDetectsTampering(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	backend, _ := NewFileStore(dir, newTestSealer(t))

	if err := backend.Put(ctx, KeyVoterID, "voter123"); err != nil {
		t.Fatalf("Put voter id: %v", err)
	}
	if err := backend.Put(ctx, KeyToken, "test-token-12345"); err != nil {
		t.Fatalf("Put token: %v", err)
	}

	// Move the sealed token into the voter id slot
	data, err := os.ReadFile(filepath.Join(dir, KeyToken))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, KeyVoterID), data, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := backend.Get(ctx, KeyVoterID); !errors.Is(err, ErrTampered) {
		t.Fatalf("expected ErrTampered, got %v", err)
	}

	store, _ := New(backend)
	if _, ok := store.VoterID(ctx); ok {
		t.Fatal("tampered voter id should read as absent")
	}
}

func TestConstructorsValidateArguments(t *testing.T) {
	sealer := newTestSealer(t)

	if _, err := NewFileStore("", sealer); err == nil {
		t.Error("NewFileStore: expected error for empty dir")
	}
	if _, err := NewFileStore(t.TempDir(), nil); err == nil {
		t.Error("NewFileStore: expected error for nil sealer")
	}
	if _, err := OpenSQLiteStore(" ", sealer); err == nil {
		t.Error("OpenSQLiteStore: expected error for blank path")
	}
	if _, err := NewKeyringStore(""); err == nil {
		t.Error("NewKeyringStore: expected error for empty service")
	}
	if _, err := NewSplit(nil, nil); err == nil {
		t.Error("NewSplit: expected error for nil backends")
	}
	if _, err := New(nil); err == nil {
		t.Error("New: expected error for nil backend")
	}
}
