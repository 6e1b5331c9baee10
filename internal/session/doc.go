// Package session remembers recently used passwords for one working session.
//
// A Cache maps a scope key, derived from a document path at the configured
// Level, to the last PasswordAndHint used for that scope. Entries expire
// lazily on Recall once their lifetime (set with SetAutoExpire, in minutes)
// has passed; a lifetime of 0 keeps them until Close.
//
// Nothing in this package writes to disk.
package session
