// Package security confines notelock file access to the notes directory.
package security
