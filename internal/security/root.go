package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrPathEscapes = errors.New("path escapes notes root")
	ErrEmptyPath   = errors.New("empty path not allowed")
	ErrNotRegular  = errors.New("not a regular file")
)

// NotesRoot confines document reads and writes to one directory using
// os.Root, so neither ".." segments nor symlinks can reach outside it.
type NotesRoot struct {
	root *os.Root
	dir  string
}

// New opens the notes directory at dir
func New(dir string) (*NotesRoot, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open notes root: %w", err)
	}

	return &NotesRoot{root: root, dir: abs}, nil
}

// Close releases the root handle
func (r *NotesRoot) Close() error {
	if r.root != nil {
		return r.root.Close()
	}
	return nil
}

// Dir returns the absolute notes directory
func (r *NotesRoot) Dir() string {
	return r.dir
}

// Rel turns a user supplied path into a slash separated path relative to
// the root. Absolute paths are accepted when they point inside the root.
func (r *NotesRoot) Rel(userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}

	p := userPath
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.dir, p)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
		}
		p = rel
	}

	clean := filepath.Clean(p)
	if !filepath.IsLocal(clean) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}
	if clean == "." {
		return "", fmt.Errorf("%w: %s", ErrNotRegular, userPath)
	}

	return filepath.ToSlash(clean), nil
}

// Abs returns the absolute location of a root relative path, for display
func (r *NotesRoot) Abs(rel string) string {
	return filepath.Join(r.dir, filepath.FromSlash(rel))
}

func (r *NotesRoot) platform(p string) (string, error) {
	rel, err := r.Rel(p)
	if err != nil {
		return "", err
	}
	return filepath.FromSlash(rel), nil
}

// ReadFile reads a regular file inside the root
func (r *NotesRoot) ReadFile(p string) ([]byte, error) {
	name, err := r.platform(p)
	if err != nil {
		return nil, err
	}

	info, err := r.root.Stat(name)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, p)
	}

	return r.root.ReadFile(name)
}

// WriteFile writes data inside the root, creating parent directories.
// An existing file keeps its permissions; new files are created 0600.
func (r *NotesRoot) WriteFile(p string, data []byte) error {
	name, err := r.platform(p)
	if err != nil {
		return err
	}

	perm := os.FileMode(0600)
	if info, err := r.root.Stat(name); err == nil {
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%w: %s", ErrNotRegular, p)
		}
		perm = info.Mode().Perm()
	}

	if dir := filepath.Dir(name); dir != "." {
		if err := r.root.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	return r.root.WriteFile(name, data, perm)
}

// Remove deletes a file inside the root
func (r *NotesRoot) Remove(p string) error {
	name, err := r.platform(p)
	if err != nil {
		return err
	}
	return r.root.Remove(name)
}

// Stat returns file info for a path inside the root
func (r *NotesRoot) Stat(p string) (os.FileInfo, error) {
	name, err := r.platform(p)
	if err != nil {
		return nil, err
	}
	return r.root.Stat(name)
}

// Exists reports whether p names an existing entry inside the root
func (r *NotesRoot) Exists(p string) bool {
	_, err := r.Stat(p)
	return err == nil
}

// Walk calls fn for every regular file under the root whose extension is
// one of exts. Hidden directories are skipped.
func (r *NotesRoot) Walk(fn func(rel string) error, exts ...string) error {
	return fs.WalkDir(r.root.FS(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if len(exts) > 0 && !hasExt(p, exts) {
			return nil
		}
		return fn(p)
	})
}

func hasExt(p string, exts []string) bool {
	ext := path.Ext(p)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
