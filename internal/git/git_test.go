package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormat_NotRepo(t *testing.T) {
	if got := Format(&Status{}); got != "" {
		t.Errorf("Format outside repo = %q, want empty", got)
	}
}

func TestFormat_Warnings(t *testing.T) {
	s := &Status{
		IsRepo:             true,
		TrackedPlaintext:   []string{"a.md"},
		UnignoredPlaintext: []string{"b.md"},
	}
	out := Format(s)
	if !strings.Contains(out, "git rm --cached a.md") {
		t.Errorf("Missing tracked hint in %q", out)
	}
	if !strings.Contains(out, "b.md is not in .gitignore") {
		t.Errorf("Missing ignore warning in %q", out)
	}
	if strings.Contains(out, "ok:") {
		t.Errorf("Unexpected ok line in %q", out)
	}
}

func TestFormat_Clean(t *testing.T) {
	out := Format(&Status{IsRepo: true})
	if !strings.Contains(out, "ok:") {
		t.Errorf("Expected ok line, got %q", out)
	}
}

func TestCheck(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	dir := t.TempDir()

	if s := Check(ctx, dir, ".notelock", []string{"a.md"}); s.IsRepo {
		t.Fatal("Temp dir should not be a repository")
	}

	if out, err := exec.Command("git", "-C", dir, "init", "-q").CombinedOutput(); err != nil {
		t.Skipf("git init failed: %v %s", err, out)
	}
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("secret.md\n"), 0644); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"secret.md", "open.md"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	s := Check(ctx, dir, ".notelock", []string{"secret.md", "open.md"})
	if !s.IsRepo {
		t.Fatal("Expected repository")
	}
	if len(s.TrackedPlaintext) != 0 {
		t.Errorf("Nothing is tracked yet, got %v", s.TrackedPlaintext)
	}
	if len(s.UnignoredPlaintext) != 1 || s.UnignoredPlaintext[0] != "open.md" {
		t.Errorf("UnignoredPlaintext = %v, want [open.md]", s.UnignoredPlaintext)
	}
	if !s.HasWarnings() {
		t.Error("Expected warnings")
	}
}
