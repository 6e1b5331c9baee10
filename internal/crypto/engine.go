package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"hash"
	"strconv"

	"golang.org/x/crypto/pbkdf2"
)

// Version identifies the cipher configuration that produced a payload.
// The set is append-only: a new configuration gets a new Version.
type Version int

const (
	VersionObsolete Version = 0
	VersionAlpha    Version = 1
	VersionBeta     Version = 2

	// Current is used for every new encryption
	Current = VersionBeta
)

func (v Version) String() string {
	switch v {
	case VersionObsolete:
		return "obsolete"
	case VersionAlpha:
		return "alpha"
	case VersionBeta:
		return "beta"
	}
	return "v" + strconv.Itoa(int(v))
}

// KDF selects how an engine turns a password into an AES key
type KDF int

const (
	KDFDigest KDF = iota // SHA-256 of the password, no salt
	KDFPBKDF2            // PBKDF2-HMAC with Params.Hash
)

// Params are the fixed cipher parameters of one engine.
//
// Blob layout is nonce || salt || ciphertext || tag, where the nonce is
// present only when FixedNonce is nil and the salt only when SaltSize > 0.
type Params struct {
	KDF        KDF
	Hash       func() hash.Hash
	Iterations int
	SaltSize   int
	NonceSize  int
	FixedSalt  []byte
	FixedNonce []byte
}

func (p Params) headerSize() int {
	n := 0
	if p.FixedNonce == nil {
		n += p.NonceSize
	}
	return n + p.SaltSize
}

func (p Params) clone() Params {
	p.FixedSalt = append([]byte(nil), p.FixedSalt...)
	p.FixedNonce = append([]byte(nil), p.FixedNonce...)
	if len(p.FixedSalt) == 0 {
		p.FixedSalt = nil
	}
	if len(p.FixedNonce) == 0 {
		p.FixedNonce = nil
	}
	return p
}

// Engine encrypts and decrypts base64 blobs for exactly one Version.
// Engines are immutable and safe for concurrent use.
type Engine struct {
	version     Version
	params      Params
	decryptOnly bool
}

func newEngine(v Version, p Params, decryptOnly bool) *Engine {
	return &Engine{version: v, params: p.clone(), decryptOnly: decryptOnly}
}

// Version returns the format version this engine reads and writes
func (e *Engine) Version() Version {
	return e.version
}

// Params returns a copy of the engine parameters
func (e *Engine) Params() Params {
	return e.params.clone()
}

// DecryptOnly reports whether the engine refuses to produce new ciphertext
func (e *Engine) DecryptOnly() bool {
	return e.decryptOnly
}

func (e *Engine) deriveKey(password, salt []byte) []byte {
	if e.params.KDF == KDFDigest {
		sum := sha256.Sum256(password)
		key := make([]byte, KeySize)
		copy(key, sum[:])
		ClearBytes(sum[:])
		return key
	}
	return pbkdf2.Key(password, salt, e.params.Iterations, KeySize, e.params.Hash)
}

// Encrypt encrypts text with a key derived from password and returns the
// base64 encoded blob. Salt and nonce are fresh for every call.
func (e *Engine) Encrypt(text, password string) (string, error) {
	if e.decryptOnly {
		return "", fmt.Errorf("%w: %s", ErrDecryptOnly, e.version)
	}

	plaintext := []byte(text)
	defer ClearBytes(plaintext)
	pw := []byte(password)
	defer ClearBytes(pw)

	blob, err := e.seal(plaintext, pw)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

func (e *Engine) seal(plaintext, password []byte) ([]byte, error) {
	p := e.params

	nonce := p.FixedNonce
	if nonce == nil {
		var err error
		if nonce, err = GenerateRandom(p.NonceSize); err != nil {
			return nil, fmt.Errorf("failed to generate nonce: %w", err)
		}
	}

	salt := p.FixedSalt
	if p.SaltSize > 0 {
		var err error
		if salt, err = GenerateRandom(p.SaltSize); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	key := e.deriveKey(password, salt)
	defer ClearBytes(key)

	gcm, err := newGCM(key, len(nonce))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, p.headerSize()+len(plaintext)+TagSize)
	if p.FixedNonce == nil {
		out = append(out, nonce...)
	}
	if p.SaltSize > 0 {
		out = append(out, salt...)
	}
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt decodes and decrypts a blob produced by Encrypt. It reports false
// for every failure: bad base64, truncated blob, wrong password or tampering.
func (e *Engine) Decrypt(encoded, password string) (string, bool) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}

	pw := []byte(password)
	defer ClearBytes(pw)

	plaintext, err := e.open(blob, pw)
	if err != nil {
		return "", false
	}
	defer ClearBytes(plaintext)
	return string(plaintext), true
}

// DecryptTagged is Decrypt for a payload that carries its own version tag.
// A payload tagged for another version is refused without touching the cipher.
func (e *Engine) DecryptTagged(tag Version, encoded, password string) (string, bool) {
	if tag != e.version {
		return "", false
	}
	return e.Decrypt(encoded, password)
}

func (e *Engine) open(blob, password []byte) ([]byte, error) {
	p := e.params
	if len(blob) < p.headerSize()+TagSize {
		return nil, ErrInvalidCiphertext
	}

	offset := 0
	nonce := p.FixedNonce
	if nonce == nil {
		nonce = blob[:p.NonceSize]
		offset = p.NonceSize
	}
	salt := p.FixedSalt
	if p.SaltSize > 0 {
		salt = blob[offset : offset+p.SaltSize]
		offset += p.SaltSize
	}

	key := e.deriveKey(password, salt)
	defer ClearBytes(key)

	gcm, err := newGCM(key, len(nonce))
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, blob[offset:], nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// UsePassword binds password as the single canonical password. It returns a
// canary: the encryption of a random, non-secret number. Persist the canary
// and validate candidates with CheckPassword; the password itself is never kept.
func (e *Engine) UsePassword(password string) (string, error) {
	b, err := GenerateRandom(4)
	if err != nil {
		return "", err
	}
	marker := strconv.FormatUint(uint64(binary.BigEndian.Uint32(b)), 10)
	return e.Encrypt(marker, password)
}

// CheckPassword reports whether password opens canary
func (e *Engine) CheckPassword(canary, password string) bool {
	if canary == "" {
		return false
	}
	_, ok := e.Decrypt(canary, password)
	return ok
}
