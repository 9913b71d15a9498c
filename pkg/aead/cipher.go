package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Block layout constants.
const (
	// KeySize is the symmetric key size in bytes (256 bits).
	KeySize = 32

	// NonceSize is the per-message nonce size in bytes (96 bits).
	NonceSize = 12

	// TagSize is the authentication tag size in bytes.
	TagSize = 16

	// Overhead is the number of bytes Seal adds to a plaintext.
	Overhead = NonceSize + TagSize
)

// Cipher names accepted by New.
const (
	NameNone             = "none"
	NameAESGCM           = "aes-256-gcm"
	NameChaCha20Poly1305 = "chacha20-poly1305"
)

// Encryption errors.
var (
	// ErrAuthenticationFailed indicates a block whose tag did not verify.
	// The payload must be discarded; treat it as possible tampering.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrInvalidKey indicates a key of the wrong length.
	ErrInvalidKey = errors.New("invalid key")

	// ErrNonce indicates the nonce source failed.
	ErrNonce = errors.New("nonce generation failed")
)

// Cipher seals and opens payload blocks.
// Implementations must be safe for concurrent use.
type Cipher interface {
	// Name returns the configuration name of the cipher.
	Name() string

	// Seal encrypts plaintext and returns nonce || ciphertext || tag.
	// ad may be nil.
	Seal(plaintext, ad []byte) ([]byte, error)

	// Open verifies and decrypts a block produced by Seal with the same
	// key and ad.
	Open(block, ad []byte) ([]byte, error)

	// Overhead returns the bytes Seal adds to a plaintext.
	Overhead() int
}

// Option configures a Cipher.
type Option func(*sealer)

// WithRand replaces the nonce source. Intended for tests that need a
// failing or deterministic source; production code should keep crypto/rand.
func WithRand(r io.Reader) Option {
	return func(s *sealer) {
		s.rand = r
	}
}

// sealer adapts a stdlib-shaped cipher.AEAD to the block layout.
type sealer struct {
	name string
	aead cipher.AEAD
	rand io.Reader
}

// New returns the cipher registered under name, keyed with key.
// "none" and the empty string return a nil Cipher, which disables
// encryption.
func New(name string, key []byte, opts ...Option) (Cipher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameNone:
		return nil, nil
	case NameAESGCM:
		return NewAESGCM(key, opts...)
	case NameChaCha20Poly1305:
		return NewChaCha20Poly1305(key, opts...)
	default:
		return nil, fmt.Errorf("unknown cipher %q", name)
	}
}

// NewAESGCM returns an AES-256-GCM cipher.
func NewAESGCM(key []byte, opts ...Option) (Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: AES-256 needs %d bytes, got %d", ErrInvalidKey, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return newSealer(NameAESGCM, gcm, opts), nil
}

// NewChaCha20Poly1305 returns a ChaCha20-Poly1305 cipher.
func NewChaCha20Poly1305(key []byte, opts ...Option) (Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: ChaCha20-Poly1305 needs %d bytes, got %d", ErrInvalidKey, KeySize, len(key))
	}
	c, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return newSealer(NameChaCha20Poly1305, c, opts), nil
}

func newSealer(name string, a cipher.AEAD, opts []Option) *sealer {
	s := &sealer{name: name, aead: a, rand: rand.Reader}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *sealer) Name() string { return s.name }

func (s *sealer) Overhead() int { return Overhead }

func (s *sealer) Seal(plaintext, ad []byte) ([]byte, error) {
	out := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	if _, err := io.ReadFull(s.rand, out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNonce, err)
	}
	return s.aead.Seal(out, out[:NonceSize], plaintext, ad), nil
}

func (s *sealer) Open(block, ad []byte) ([]byte, error) {
	if len(block) < Overhead {
		return nil, fmt.Errorf("%w: short ciphertext (%d bytes)", ErrAuthenticationFailed, len(block))
	}
	nonce, sealed := block[:NonceSize], block[NonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, sealed, ad)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}
