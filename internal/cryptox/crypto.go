// Package cryptox seals vault secrets with AES-256-GCM and hashes account
// passwords with argon2id.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/dmitrijs2005/vaultwatch/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// KeySize is the AES-256 key length produced by DeriveKey.
	KeySize = 32
	// NonceSize is the GCM nonce length (96 bits).
	NonceSize = 12
	// TagSize is the GCM authentication tag length.
	TagSize = 16

	// FallbackSecret is the well-known deployment secret used when none is
	// configured outside production. Records sealed under it are not protected.
	FallbackSecret = "default_secret"
)

// DeriveKey hashes the deployment secret down to a KeySize key. The secret
// itself is never used as key material.
func DeriveKey(secret []byte) []byte {
	sum := sha256.Sum256(secret)
	return sum[:]
}

// Sealed is one encrypted secret: nonce, ciphertext and tag kept apart so each
// can be stored in its own column.
type Sealed struct {
	Nonce      []byte
	Ciphertext []byte
	Tag        []byte
}

// Encode renders the three parts as hex strings for storage.
func (s *Sealed) Encode() (nonce, ciphertext, tag string) {
	return hex.EncodeToString(s.Nonce), hex.EncodeToString(s.Ciphertext), hex.EncodeToString(s.Tag)
}

// DecodeSealed parses the stored hex triple. Every part is required; a
// missing or malformed part yields common.ErrCorruptRecord.
func DecodeSealed(nonce, ciphertext, tag string) (*Sealed, error) {
	if nonce == "" || ciphertext == "" || tag == "" {
		return nil, fmt.Errorf("%w: missing field", common.ErrCorruptRecord)
	}
	n, err := hex.DecodeString(nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", common.ErrCorruptRecord, err)
	}
	c, err := hex.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext: %v", common.ErrCorruptRecord, err)
	}
	t, err := hex.DecodeString(tag)
	if err != nil {
		return nil, fmt.Errorf("%w: tag: %v", common.ErrCorruptRecord, err)
	}
	return &Sealed{Nonce: n, Ciphertext: c, Tag: t}, nil
}

// Cipher seals and opens secrets under a single process-wide key.
type Cipher struct {
	aead   cipher.AEAD
	random io.Reader
}

// NewCipher builds an AES-GCM cipher. The key must be KeySize bytes.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key size %d, want %d", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead, random: rand.Reader}, nil
}

// Encrypt seals plaintext under a fresh random nonce. Nonces are never
// derived from content or counters.
func (c *Cipher) Encrypt(plaintext string) (*Sealed, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}

	out := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	split := len(out) - TagSize

	return &Sealed{
		Nonce:      nonce,
		Ciphertext: out[:split:split],
		Tag:        out[split:],
	}, nil
}

// Decrypt opens a sealed secret. A tag that does not verify returns
// common.ErrAuthenticationFailed and no plaintext.
func (c *Cipher) Decrypt(s *Sealed) (string, error) {
	if s == nil || len(s.Nonce) != NonceSize || len(s.Tag) != TagSize {
		return "", common.ErrCorruptRecord
	}

	buf := make([]byte, 0, len(s.Ciphertext)+TagSize)
	buf = append(buf, s.Ciphertext...)
	buf = append(buf, s.Tag...)

	plaintext, err := c.aead.Open(nil, s.Nonce, buf, nil)
	if err != nil {
		return "", common.ErrAuthenticationFailed
	}
	defer common.WipeByteArray(plaintext)

	return string(plaintext), nil
}

// HashPassword derives an argon2id hash of an account password.
func HashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
}

// VerifyPassword compares in constant time.
func VerifyPassword(password string, salt, hash []byte) bool {
	return subtle.ConstantTimeCompare(HashPassword(password, salt), hash) == 1
}
