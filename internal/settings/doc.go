// Package settings persists notelock preferences and the index of encrypted
// documents in a BBolt database (".notelock" by default).
//
// The database never holds a password. In single-password mode it keeps a
// canary ciphertext that only the canonical password decrypts.
package settings
