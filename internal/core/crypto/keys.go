package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/hkdf"
)

// MasterKeySize is the length of a decoded master key.
const MasterKeySize = 32

const (
	infoFieldCipher = "sos911-field-cipher-v1"
	infoBlindIndex  = "sos911-blind-index-v1"
)

// ParseMasterKey decodes a base64 (standard or URL alphabet) master key.
func ParseMasterKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("master key is empty")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("master key is not base64: %w", err)
		}
	}
	if len(raw) != MasterKeySize {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", MasterKeySize, len(raw))
	}
	return raw, nil
}

// ParseMasterKeys decodes a comma separated list of master keys.
func ParseMasterKeys(csv string) ([][]byte, error) {
	var keys [][]byte
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseMasterKey(part)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// DeriveHKDFSHA256 expands ikm into length bytes bound to info.
func DeriveHKDFSHA256(ikm, salt, info []byte, length int) ([]byte, error) {
	if len(ikm) == 0 {
		return nil, fmt.Errorf("hkdf input key material must not be empty")
	}
	if length <= 0 {
		return nil, fmt.Errorf("hkdf output length must be positive")
	}
	out := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, info), out); err != nil {
		return nil, fmt.Errorf("derive hkdf key: %w", err)
	}
	return out, nil
}

// deriveLocked derives a subkey and moves it into guarded memory.
func deriveLocked(master []byte, info string) (*memguard.LockedBuffer, error) {
	k, err := DeriveHKDFSHA256(master, nil, []byte(info), MasterKeySize)
	if err != nil {
		return nil, err
	}
	// NewBufferFromBytes wipes k.
	return memguard.NewBufferFromBytes(k), nil
}
