package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

// fastBeta has the beta layout with a cheap iteration count so property
// tests can run many operations.
func fastBeta() *Engine {
	p := engines[VersionBeta].Params()
	p.Iterations = 10
	return newEngine(VersionBeta, p, false)
}

func sampleTexts() map[string]string {
	return map[string]string{
		"empty":     "",
		"short":     "hello",
		"unicode":   "pässwörd protected 🔐 notes",
		"multiline": "line one\nline two\r\n\ttabbed",
		"large":     strings.Repeat("lorem ipsum dolor sit amet ", 400),
	}
}

func TestRoundTrip_AllWritableEngines(t *testing.T) {
	for _, v := range []Version{VersionAlpha, VersionBeta} {
		e, ok := ForVersion(v)
		require.True(t, ok)

		for name, text := range sampleTexts() {
			t.Run(v.String()+"/"+name, func(t *testing.T) {
				encoded, err := e.Encrypt(text, "secret")
				require.NoError(t, err)

				got, ok := e.Decrypt(encoded, "secret")
				require.True(t, ok)
				assert.Equal(t, text, got)
			})
		}
	}
}

func TestEncrypt_FreshSaltAndNonce(t *testing.T) {
	e := fastBeta()

	a, err := e.Encrypt("same text", "same password")
	require.NoError(t, err)
	b, err := e.Encrypt("same text", "same password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)

	rawA, _ := base64.StdEncoding.DecodeString(a)
	rawB, _ := base64.StdEncoding.DecodeString(b)
	assert.NotEqual(t, rawA[:16], rawB[:16], "nonce reused")
	assert.NotEqual(t, rawA[16:32], rawB[16:32], "salt reused")
}

func TestBeta_BlobLength(t *testing.T) {
	e := fastBeta()
	encoded, err := e.Encrypt("abc", "pw")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Len(t, raw, 16+16+3+TagSize)
}

func TestDecrypt_WrongPassword(t *testing.T) {
	for _, e := range []*Engine{fastBeta(), engines[VersionAlpha]} {
		encoded, err := e.Encrypt("top secret", "pw1")
		require.NoError(t, err)

		got, ok := e.Decrypt(encoded, "pw2")
		assert.False(t, ok)
		assert.Empty(t, got)
	}
}

func TestDecrypt_TamperedBlob(t *testing.T) {
	key := sha256.Sum256([]byte("pw"))
	obsolete := base64.StdEncoding.EncodeToString(sealWith(t, key[:], obsoleteNonce, []byte("tamper me")))

	cases := map[string]struct {
		engine  *Engine
		encoded string
	}{
		"obsolete": {engines[VersionObsolete], obsolete},
	}
	for _, e := range []*Engine{engines[VersionAlpha], fastBeta()} {
		encoded, err := e.Encrypt("tamper me", "pw")
		require.NoError(t, err)
		cases[e.Version().String()] = struct {
			engine  *Engine
			encoded string
		}{e, encoded}
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			raw, err := base64.StdEncoding.DecodeString(tc.encoded)
			require.NoError(t, err)

			got, ok := tc.engine.Decrypt(tc.encoded, "pw")
			require.True(t, ok)
			require.Equal(t, "tamper me", got)

			for i := range raw {
				tampered := append([]byte(nil), raw...)
				tampered[i] ^= 0x01

				_, ok := tc.engine.Decrypt(base64.StdEncoding.EncodeToString(tampered), "pw")
				assert.False(t, ok, "byte %d flipped but decrypt succeeded", i)
			}
		})
	}
}

func TestDecrypt_MalformedInput(t *testing.T) {
	e := fastBeta()
	cases := map[string]string{
		"not base64": "%%%not-base64%%%",
		"empty":      "",
		"too short":  base64.StdEncoding.EncodeToString(make([]byte, 31)),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := e.Decrypt(in, "pw")
			assert.False(t, ok)
			assert.Empty(t, got)
		})
	}
}

func TestVersionIsolation(t *testing.T) {
	beta := fastBeta()
	encoded, err := beta.Encrypt("written by beta", "pw")
	require.NoError(t, err)

	for _, v := range []Version{VersionObsolete, VersionAlpha} {
		got, ok := engines[v].Decrypt(encoded, "pw")
		assert.False(t, ok, v.String())
		assert.Empty(t, got)
	}
}

func TestDecryptTagged_RefusesForeignTag(t *testing.T) {
	e := engines[VersionAlpha]
	encoded, err := e.Encrypt("alpha text", "pw")
	require.NoError(t, err)

	_, ok := e.DecryptTagged(VersionBeta, encoded, "pw")
	assert.False(t, ok)

	got, ok := e.DecryptTagged(VersionAlpha, encoded, "pw")
	assert.True(t, ok)
	assert.Equal(t, "alpha text", got)
}

func TestObsolete_DecryptOnly(t *testing.T) {
	e := engines[VersionObsolete]
	assert.True(t, e.DecryptOnly())

	_, err := e.Encrypt("x", "pw")
	assert.ErrorIs(t, err, ErrDecryptOnly)
}

// The vectors below are produced with the standard library directly, so they
// pin the wire layout independently of the engine code.

func sealWith(t *testing.T, key, nonce, plaintext []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	gcm, err := cipher.NewGCMWithNonceSize(block, len(nonce))
	require.NoError(t, err)
	return gcm.Seal(nil, nonce, plaintext, nil)
}

func TestObsolete_LegacyLayout(t *testing.T) {
	key := sha256.Sum256([]byte("legacy-pw"))
	blob := sealWith(t, key[:], obsoleteNonce, []byte("old note"))

	got, ok := engines[VersionObsolete].Decrypt(base64.StdEncoding.EncodeToString(blob), "legacy-pw")
	require.True(t, ok)
	assert.Equal(t, "old note", got)
}

func TestAlpha_LegacyLayout(t *testing.T) {
	nonce := []byte("0123456789abcdef")
	key := pbkdf2.Key([]byte("alpha-pw"), []byte("XHWnDAT6ehMVY2zD"), 1000, 32, sha256.New)
	blob := append(append([]byte(nil), nonce...), sealWith(t, key, nonce, []byte("alpha note"))...)

	got, ok := engines[VersionAlpha].Decrypt(base64.StdEncoding.EncodeToString(blob), "alpha-pw")
	require.True(t, ok)
	assert.Equal(t, "alpha note", got)
}

func TestBeta_LegacyLayout(t *testing.T) {
	nonce := []byte("fedcba9876543210")
	salt := []byte("saltsaltsaltsalt")
	key := pbkdf2.Key([]byte("beta-pw"), salt, 210000, 32, sha512.New)

	blob := append(append([]byte(nil), nonce...), salt...)
	blob = append(blob, sealWith(t, key, nonce, []byte("beta note"))...)

	got, ok := Default().Decrypt(base64.StdEncoding.EncodeToString(blob), "beta-pw")
	require.True(t, ok)
	assert.Equal(t, "beta note", got)
}

// Fixed blobs produced outside Go with WebCrypto subtle PBKDF2 and AES-GCM,
// the calls the browser plugin encrypts with. Password "correct horse",
// text "meet at noon".
var pinnedBlobs = map[Version]string{
	VersionObsolete: "FKe1Q2DEyE/AB4lyY8wY+5+SHsL0efYgm37NQQ==",
	VersionAlpha:    "AQIDBAUGBwgJCgsMDQ4PEB+gZJzNy3DZYlwmbwTqRz6Pf9s4cR3HdAbBmi4=",
	VersionBeta:     "EBESExQVFhcYGRobHB0eH6ChoqOkpaanqKmqq6ytrq/JUzTjdAD5wf3n2qiPzSbQE+9JCZ/SJKoQj+bl",
}

func TestDecrypt_PinnedBlobs(t *testing.T) {
	for v, encoded := range pinnedBlobs {
		t.Run(v.String(), func(t *testing.T) {
			e, ok := ForVersion(v)
			require.True(t, ok)

			got, ok := e.Decrypt(encoded, "correct horse")
			require.True(t, ok)
			assert.Equal(t, "meet at noon", got)

			_, ok = e.Decrypt(encoded, "wrong horse")
			assert.False(t, ok)
		})
	}
}

func TestUsePassword_Canary(t *testing.T) {
	e := fastBeta()

	canary, err := e.UsePassword("canonical")
	require.NoError(t, err)
	assert.NotContains(t, canary, "canonical")

	assert.True(t, e.CheckPassword(canary, "canonical"))
	assert.False(t, e.CheckPassword(canary, "other"))
	assert.False(t, e.CheckPassword("", "canonical"))
}

func TestParams_ReturnsCopy(t *testing.T) {
	p := engines[VersionAlpha].Params()
	p.FixedSalt[0] = 'Z'
	p.Iterations = 1

	fresh := engines[VersionAlpha].Params()
	assert.Equal(t, byte('X'), fresh.FixedSalt[0])
	assert.Equal(t, 1000, fresh.Iterations)
}

func TestClearBytes(t *testing.T) {
	b := []byte("sensitive")
	ClearBytes(b)
	for _, c := range b {
		assert.Zero(t, c)
	}
}

func TestConstantTimeCompare(t *testing.T) {
	assert.True(t, ConstantTimeCompare([]byte("abc"), []byte("abc")))
	assert.False(t, ConstantTimeCompare([]byte("abc"), []byte("abd")))
}
