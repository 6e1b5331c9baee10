// Package payload parses and renders stored ciphertext without decrypting it.
//
// Two shapes are supported:
//   - Document: a whole .mdenc file, JSON with a dotted "version" tag
//   - Span: an inline marker inside a Markdown body with a numeric version
//     implied by its prefix, optionally carrying a 💡hint💡
//
// Parsing failures are structural and wrap ErrMalformed. Unknown version
// tags parse fine and are rejected later by the engine selector.
package payload
