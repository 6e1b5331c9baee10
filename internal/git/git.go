package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Status reports how decrypted notes relate to the surrounding git repository
type Status struct {
	IsRepo             bool
	SettingsTracked    bool
	TrackedPlaintext   []string // decrypted files committed to git (bad)
	UnignoredPlaintext []string // decrypted files git would pick up (warning)
}

// HasWarnings reports whether anything needs the user's attention
func (s *Status) HasWarnings() bool {
	return s.IsRepo && (len(s.TrackedPlaintext) > 0 || len(s.UnignoredPlaintext) > 0)
}

func run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	return cmd.Output()
}

// IsRepo checks if dir is inside a git work tree
func IsRepo(ctx context.Context, dir string) bool {
	_, err := run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(ctx context.Context, dir, path string) bool {
	out, err := run(ctx, dir, "ls-files", "--", path)
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(out))) > 0
}

// IsIgnored checks if a file is ignored by any .gitignore
func IsIgnored(ctx context.Context, dir, path string) bool {
	// exit code 0 means ignored
	_, err := run(ctx, dir, "check-ignore", "-q", "--", path)
	return err == nil
}

// Check inspects the settings database and the given plaintext outputs.
// Outside a git repository it returns a Status with IsRepo false.
func Check(ctx context.Context, dir, settingsFile string, plaintext []string) *Status {
	status := &Status{}
	if !IsRepo(ctx, dir) {
		return status
	}
	status.IsRepo = true

	if settingsFile != "" {
		status.SettingsTracked = IsTracked(ctx, dir, settingsFile)
	}

	for _, file := range plaintext {
		switch {
		case IsTracked(ctx, dir, file):
			status.TrackedPlaintext = append(status.TrackedPlaintext, file)
		case !IsIgnored(ctx, dir, file):
			status.UnignoredPlaintext = append(status.UnignoredPlaintext, file)
		}
	}

	return status
}

// Format renders status for the terminal; empty outside a repository
func Format(status *Status) string {
	if !status.IsRepo {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nGit:\n")

	if status.SettingsTracked {
		b.WriteString("   note: settings database is tracked by git (it holds no passwords)\n")
	}

	for _, file := range status.TrackedPlaintext {
		fmt.Fprintf(&b, "   error: decrypted %s is tracked by git (run: git rm --cached %s)\n", file, file)
	}
	for _, file := range status.UnignoredPlaintext {
		fmt.Fprintf(&b, "   warning: decrypted %s is not in .gitignore\n", file)
	}
	if !status.HasWarnings() {
		b.WriteString("   ok: no decrypted notes exposed to git\n")
	}

	return b.String()
}
