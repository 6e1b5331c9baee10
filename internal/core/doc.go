// Package core ties the cipher engines, payload formats and the session
// password cache together into notelock's document operations.
//
// Operations:
//   - EncryptDocument/DecryptDocument: whole files to and from .mdenc
//   - LockSpan/UnlockSpans/Show: inline encrypted spans inside a note
//   - Upgrade: re-encrypt legacy payloads with the current format
//   - ChangePassword, Diff, Status
//
// Passwords are looked up in the session cache first, then taken from the
// configured password, then asked for through a Prompter. In single
// password mode new ciphertext is only produced with the canonical password.
package core
