package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the sealing key size in bytes (AES-256)
const KeySize = 32

// sealVersion prefixes every sealed blob and is authenticated as AAD
const sealVersion byte = 0x01

var (
	hkdfSalt = []byte("terminator.secret.salt.v1")
	hkdfInfo = []byte("terminator.secret.v1")
)

var (
	// ErrSealedTooShort is returned when a blob cannot hold a nonce and tag
	ErrSealedTooShort = errors.New("sealed data too short")
	// ErrUnsupportedVersion is returned for blobs sealed by an unknown format
	ErrUnsupportedVersion = errors.New("unsupported sealed data version")
)

// Sealer encrypts values stored at rest with AES-256-GCM
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer creates a sealer from a 32 byte key
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes for AES-256, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// NewSealerFromPassword derives the key from password with HKDF-SHA256
func NewSealerFromPassword(password string) (*Sealer, error) {
	if password == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}

	key, err := DeriveKey([]byte(password))
	if err != nil {
		return nil, err
	}
	return NewSealer(key)
}

// DeriveKey expands secret into a KeySize key
func DeriveKey(secret []byte) ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, hkdfSalt, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// LoadKeyFile reads a sealing key from path. The file holds either 32 raw
// bytes or 64 hex characters; surrounding whitespace is ignored for hex.
func LoadKeyFile(path string) (*Sealer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if len(data) == KeySize {
		return NewSealer(data)
	}

	text := strings.TrimSpace(string(data))
	if len(text) == hex.EncodedLen(KeySize) {
		key, err := hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("failed to decode key file: %w", err)
		}
		return NewSealer(key)
	}

	return nil, fmt.Errorf("key file %s must hold %d raw bytes or %d hex characters", path, KeySize, hex.EncodedLen(KeySize))
}

// GenerateKey returns a random KeySize key
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext. The result is version || nonce || ciphertext+tag.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("cannot encrypt empty data")
	}

	nonceSize := s.aead.NonceSize()
	out := make([]byte, 1+nonceSize, 1+nonceSize+len(plaintext)+s.aead.Overhead())
	out[0] = sealVersion

	nonce := out[1 : 1+nonceSize]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return s.aead.Seal(out, nonce, plaintext, out[:1]), nil
}

// Open decrypts data produced by Seal
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	if len(sealed) < 1+nonceSize+s.aead.Overhead() {
		return nil, ErrSealedTooShort
	}
	if sealed[0] != sealVersion {
		return nil, fmt.Errorf("%w: %#x", ErrUnsupportedVersion, sealed[0])
	}

	nonce := sealed[1 : 1+nonceSize]
	plaintext, err := s.aead.Open(nil, nonce, sealed[1+nonceSize:], sealed[:1])
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}
