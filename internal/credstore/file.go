package credstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one sealed file per key inside a private directory.
// Writes use temp file + rename for crash safety.
type FileStore struct {
	dir    string
	sealer *Sealer
}

// Compile-time check to ensure FileStore implements Backend
var _ Backend = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at dir, creating it with 0700
// permissions if it doesn't exist.
func NewFileStore(dir string, sealer *Sealer) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	if sealer == nil {
		return nil, fmt.Errorf("missing sealer")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &FileStore{
		dir:    dir,
		sealer: sealer,
	}, nil
}

// Name implements Backend.
func (f *FileStore) Name() string {
	return "file"
}

// Get reads and opens the sealed value for key. Returns error if the file has
// insecure permissions or fails authentication.
func (f *FileStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := f.path(key)

	// Check file permissions before reading
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if info.Mode().Perm() != 0600 {
		return "", fmt.Errorf("insecure permissions on %s: %04o (expected 0600)", path, info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	sealed := strings.TrimSpace(string(data))
	if sealed == "" {
		return "", ErrNotFound
	}
	return f.sealer.Open(key, sealed)
}

// Put seals value and atomically replaces the file for key.
// Sets file permissions to 0600 (owner read/write only).
func (f *FileStore) Put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sealed, err := f.sealer.Seal(key, value)
	if err != nil {
		return err
	}

	// Temp file in the same directory so the rename stays atomic
	tempFile, err := os.CreateTemp(f.dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if err := tempFile.Chmod(0600); err != nil {
		return err
	}
	if _, err := tempFile.WriteString(sealed + "\n"); err != nil {
		return err
	}
	if err := tempFile.Sync(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	return os.Rename(tempName, f.path(key))
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, key)
}
