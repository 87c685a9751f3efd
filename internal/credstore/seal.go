package credstore

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// sealInfo binds derived keys to this storage format.
const sealInfo = "preverify credstore v1"

// ErrTampered is returned when a sealed value fails authentication.
var ErrTampered = errors.New("sealed value failed authentication")

// Sealer encrypts and authenticates stored values with XChaCha20-Poly1305.
// The storage key name is bound as additional data, so a value sealed for one
// key cannot be moved to another.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives an encryption key from secret using HKDF-SHA256.
func NewSealer(secret []byte) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("sealing secret cannot be empty")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(sealInfo)), key); err != nil {
		return nil, fmt.Errorf("deriving sealing key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext for the given key and returns it base64 encoded.
func (s *Sealer) Seal(key, plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(key))
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Returns ErrTampered if the value was modified, sealed
// under a different secret, or sealed for a different key.
func (s *Sealer) Open(key, sealed string) (string, error) {
	data, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTampered, err)
	}
	if len(data) < s.aead.NonceSize()+s.aead.Overhead() {
		return "", fmt.Errorf("%w: value too short", ErrTampered)
	}

	nonce, ciphertext := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", ErrTampered
	}
	return string(plaintext), nil
}
