// Package git warns when decrypted notes could end up in a commit.
//
// Checks performed:
//   - Whether a decrypted file is tracked by git (it should not be)
//   - Whether a decrypted file is covered by .gitignore (it should be)
package git
