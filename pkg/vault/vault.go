// Package vault wraps document content for storage at rest. It exposes the
// three operations the ingestion pipeline consumes: Encrypt, Decrypt and Digest.
// Tokens are Fernet (AES-128-CBC + HMAC-SHA256), compatible with tokens written
// by other Fernet implementations using the same key.
package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fernet/fernet-go"
)

// ChunkSize is the read size used by streaming digests.
const ChunkSize = 64 * 1024

// Cipher encrypts and decrypts whole plaintexts.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(token []byte) ([]byte, error)
	// MaxPlaintextSize is the largest plaintext Encrypt accepts.
	MaxPlaintextSize() int64
}

type vault struct {
	primary *fernet.Key
	keys    []*fernet.Key
	maxSize int64
}

// New builds a Cipher from cfg. The primary key encrypts; the primary and any
// previous keys are tried in order on decrypt.
func New(cfg *Config) (Cipher, error) {
	if cfg.Key == "" {
		return nil, ErrMissingKey
	}

	primary, err := fernet.DecodeKey(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	keys := []*fernet.Key{primary}
	if len(cfg.PreviousKeys) > 0 {
		previous, err := fernet.DecodeKeys(cfg.PreviousKeys...)
		if err != nil {
			return nil, fmt.Errorf("%w: previous key: %w", ErrInvalidKey, err)
		}
		keys = append(keys, previous...)
	}

	return &vault{
		primary: primary,
		keys:    keys,
		maxSize: cfg.MaxPlaintextBytes(),
	}, nil
}

func (v *vault) MaxPlaintextSize() int64 {
	return v.maxSize
}

func (v *vault) Encrypt(plaintext []byte) ([]byte, error) {
	if int64(len(plaintext)) > v.maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(plaintext))
	}

	token, err := fernet.EncryptAndSign(plaintext, v.primary)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	return token, nil
}

func (v *vault) Decrypt(token []byte) ([]byte, error) {
	// A negative TTL disables the token age check; stored content never expires.
	plaintext := fernet.VerifyAndDecrypt(token, -1*time.Second, v.keys)
	if plaintext == nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestReader streams r through SHA-256 in ChunkSize reads and returns the
// hex digest and the number of bytes read.
func DigestReader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	buf := make([]byte, ChunkSize)

	n, err := io.CopyBuffer(h, r, buf)
	if err != nil {
		return "", n, fmt.Errorf("digest: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// DigestFile computes the streaming digest of the file at path without
// loading it into memory.
func DigestFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	return DigestReader(f)
}
