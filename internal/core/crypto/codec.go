package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/pkg/logger"
)

// ErrDecode marks ciphertext that cannot be turned back into plaintext under any configured key.
var ErrDecode = errors.New("undecodable ciphertext")

// Codec encrypts individual field values and computes their blind index.
// Encryption is non-deterministic: the same plaintext never yields the same ciphertext twice.
// A Codec is safe for concurrent use.
type Codec struct {
	mu     sync.RWMutex
	cipher *memguard.LockedBuffer
	legacy []*memguard.LockedBuffer
	index  *memguard.LockedBuffer
	log    *logger.Logger
	closed bool
}

// NewCodec derives the field cipher and blind-index keys from master.
// legacy master keys are only used to decrypt values written before a rotation.
// The blind index always uses the current master key.
func NewCodec(master []byte, legacy ...[]byte) (*Codec, error) {
	if len(master) != MasterKeySize {
		return nil, fmt.Errorf("master key must be %d bytes", MasterKeySize)
	}

	c := &Codec{log: logger.Default().WithComponent("codec")}

	var err error
	if c.cipher, err = deriveLocked(master, infoFieldCipher); err != nil {
		return nil, err
	}
	if c.index, err = deriveLocked(master, infoBlindIndex); err != nil {
		c.Close()
		return nil, err
	}
	for i, lk := range legacy {
		if len(lk) != MasterKeySize {
			c.Close()
			return nil, fmt.Errorf("legacy key %d must be %d bytes", i, MasterKeySize)
		}
		buf, err := deriveLocked(lk, infoFieldCipher)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.legacy = append(c.legacy, buf)
	}
	return c, nil
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext).
func (c *Codec) Encrypt(plaintext string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return "", fmt.Errorf("codec is closed")
	}

	nonce, err := randomNonce(chacha20poly1305.NonceSizeX)
	if err != nil {
		return "", err
	}
	sealed, err := sealXChaCha20Poly1305(c.cipher.Bytes(), nonce, []byte(plaintext), nil)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Any failure wraps ErrDecode.
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return "", fmt.Errorf("codec is closed")
	}

	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var lastErr error
	for _, key := range c.decryptKeys() {
		plain, err := openXChaCha20Poly1305(key.Bytes(), sealed, nil)
		if err == nil {
			return string(plain), nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: %v", ErrDecode, lastErr)
}

// SafeDecrypt is the fail-open read path: undecodable input yields "".
func (c *Codec) SafeDecrypt(ciphertext string) string {
	if ciphertext == "" {
		return ""
	}
	plain, err := c.Decrypt(ciphertext)
	if err != nil {
		c.log.Debugw("decrypt failed, returning empty value", "error", err)
		return ""
	}
	return plain
}

// BlindIndex returns a deterministic keyed digest of value scoped to field.
// A closed codec returns "".
func (c *Codec) BlindIndex(field, value string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ""
	}

	mac := hmac.New(sha256.New, c.index.Bytes())
	mac.Write([]byte(field))
	mac.Write([]byte{0})
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// Close destroys all key material. Further Encrypt/Decrypt calls fail and BlindIndex returns "".
func (c *Codec) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, buf := range append([]*memguard.LockedBuffer{c.cipher, c.index}, c.legacy...) {
		if buf != nil {
			buf.Destroy()
		}
	}
}

func (c *Codec) decryptKeys() []*memguard.LockedBuffer {
	keys := make([]*memguard.LockedBuffer, 0, 1+len(c.legacy))
	keys = append(keys, c.cipher)
	return append(keys, c.legacy...)
}
