// Package crypto provides the versioned cipher engines for notelock.
//
// Every engine uses AES-256-GCM with a 128-bit tag and differs only in key
// derivation and blob layout:
//   - obsolete (0): key = SHA-256(password), fixed 12-byte IV, decrypt-only
//   - alpha (1):    PBKDF2-HMAC-SHA256, 1000 iterations, fixed salt, 16-byte IV
//   - beta (2):     PBKDF2-HMAC-SHA512, 210,000 iterations, 16-byte random
//     salt and 16-byte random IV, blob = iv || salt || ciphertext || tag
//
// The engine table in selector.go is the only place that maps stored format
// tags (numeric for inline spans, "1.0"/"2.0" for whole documents) to
// engines. New ciphertext is always produced by Default().
//
// Decrypt never distinguishes a wrong password from a corrupted blob.
//
// Memory safety:
//   - Derived keys and intermediate plaintext buffers are zeroed after use
//   - Use ClearBytes() to zero caller-owned sensitive data
package crypto
