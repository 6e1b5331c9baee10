package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"strconv"
)

var ErrUnsupportedVersion = errors.New("unsupported format version")

// UnsupportedVersionError is returned when no engine is registered for a tag.
// This only happens for corrupted input or files written by a newer release.
type UnsupportedVersionError struct {
	Tag string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported format version %q", e.Tag)
}

func (e *UnsupportedVersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}

// Frozen parameters. Changing any value breaks every payload of that version.
var (
	obsoleteNonce = []byte{196, 190, 240, 190, 188, 78, 41, 132, 15, 220, 84, 211}
	alphaSalt     = []byte("XHWnDAT6ehMVY2zD")
)

var engines = map[Version]*Engine{
	VersionObsolete: newEngine(VersionObsolete, Params{
		KDF:        KDFDigest,
		NonceSize:  len(obsoleteNonce),
		FixedNonce: obsoleteNonce,
	}, true),
	VersionAlpha: newEngine(VersionAlpha, Params{
		KDF:        KDFPBKDF2,
		Hash:       sha256.New,
		Iterations: 1000,
		NonceSize:  16,
		FixedSalt:  alphaSalt,
	}, false),
	VersionBeta: newEngine(VersionBeta, Params{
		KDF:        KDFPBKDF2,
		Hash:       sha512.New,
		Iterations: 210000,
		SaltSize:   16,
		NonceSize:  16,
	}, false),
}

// Whole-document payloads use dotted tags. The obsolete scheme never had one.
var documentTags = map[string]Version{
	"1.0": VersionAlpha,
	"2.0": VersionBeta,
}

// ForVersion returns the engine for an inline-span version
func ForVersion(v Version) (*Engine, bool) {
	e, ok := engines[v]
	return e, ok
}

// ForDocumentVersion returns the engine for a whole-document tag such as "2.0"
func ForDocumentVersion(tag string) (*Engine, bool) {
	v, ok := ParseDocumentVersion(tag)
	if !ok {
		return nil, false
	}
	return ForVersion(v)
}

// Select is ForVersion returning an *UnsupportedVersionError when v is unknown
func Select(v Version) (*Engine, error) {
	if e, ok := ForVersion(v); ok {
		return e, nil
	}
	return nil, &UnsupportedVersionError{Tag: strconv.Itoa(int(v))}
}

// SelectDocument is ForDocumentVersion returning an *UnsupportedVersionError
// when tag is unknown
func SelectDocument(tag string) (*Engine, error) {
	if e, ok := ForDocumentVersion(tag); ok {
		return e, nil
	}
	return nil, &UnsupportedVersionError{Tag: tag}
}

// Default returns the engine used for all new ciphertext
func Default() *Engine {
	return engines[Current]
}

// ParseDocumentVersion maps a whole-document tag onto its Version
func ParseDocumentVersion(tag string) (Version, bool) {
	v, ok := documentTags[tag]
	return v, ok
}

// DocumentTag returns the whole-document tag for v, or "" if v has none
func (v Version) DocumentTag() string {
	for tag, tv := range documentTags {
		if tv == v {
			return tag
		}
	}
	return ""
}
