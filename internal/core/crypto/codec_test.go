package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, MasterKeySize)
}

func newTestCodec(t *testing.T, legacy ...[]byte) *Codec {
	t.Helper()
	c, err := NewCodec(testKey(0x11), legacy...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestCodec_RoundTripIsNonDeterministic(t *testing.T) {
	c := newTestCodec(t)

	a, err := c.Encrypt("ana@example.com")
	require.NoError(t, err)
	b, err := c.Encrypt("ana@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "two encryptions of the same plaintext must differ")

	plain, err := c.Decrypt(a)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", plain)
}

func TestCodec_EmptyPlaintext(t *testing.T) {
	c := newTestCodec(t)

	ct, err := c.Encrypt("")
	require.NoError(t, err)

	plain, err := c.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "", plain)
}

func TestCodec_DecryptGarbageWrapsErrDecode(t *testing.T) {
	c := newTestCodec(t)

	cases := map[string]string{
		"not base64": "%%%",
		"too short":  base64.StdEncoding.EncodeToString([]byte("short")),
		"tampered":   base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 64)),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decrypt(in)
			assert.True(t, errors.Is(err, ErrDecode), "got %v", err)
			assert.Equal(t, "", c.SafeDecrypt(in))
		})
	}
}

func TestCodec_LegacyKeyDecryptsOldValues(t *testing.T) {
	old, err := NewCodec(testKey(0x22))
	require.NoError(t, err)
	ct, err := old.Encrypt("0912345678")
	require.NoError(t, err)
	old.Close()

	rotated := newTestCodec(t, testKey(0x22))
	plain, err := rotated.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "0912345678", plain)

	withoutLegacy := newTestCodec(t)
	_, err = withoutLegacy.Decrypt(ct)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestCodec_BlindIndex(t *testing.T) {
	c := newTestCodec(t)

	a := c.BlindIndex("correo", "ana@example.com")
	assert.Equal(t, a, c.BlindIndex("correo", "ana@example.com"))
	assert.NotEqual(t, a, c.BlindIndex("cedula_identidad", "ana@example.com"), "index is scoped per field")
	assert.Len(t, a, 64)

	other, err := NewCodec(testKey(0x33))
	require.NoError(t, err)
	defer other.Close()
	assert.NotEqual(t, a, other.BlindIndex("correo", "ana@example.com"), "index is keyed")
}

func TestCodec_ClosedCodecRefusesWork(t *testing.T) {
	c, err := NewCodec(testKey(0x11))
	require.NoError(t, err)
	ct, err := c.Encrypt("ana@example.com")
	require.NoError(t, err)
	c.Close()

	_, err = c.Encrypt("ana@example.com")
	assert.Error(t, err)
	_, err = c.Decrypt(ct)
	assert.Error(t, err)
	assert.Empty(t, c.BlindIndex("correo", "ana@example.com"))
	assert.Empty(t, c.SafeDecrypt(ct))
}

func TestCodec_ConcurrentUse(t *testing.T) {
	c := newTestCodec(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ct, err := c.Encrypt("token")
			if err != nil {
				t.Errorf("encrypt: %v", err)
				return
			}
			if got := c.SafeDecrypt(ct); got != "token" {
				t.Errorf("got %q", got)
			}
		}()
	}
	wg.Wait()
}

func TestParseMasterKey(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString(testKey(0x44))

	k, err := ParseMasterKey(enc)
	require.NoError(t, err)
	assert.Equal(t, testKey(0x44), k)

	_, err = ParseMasterKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)

	keys, err := ParseMasterKeys(enc + ", " + enc)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}
