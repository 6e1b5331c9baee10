package settings

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/illarion/notelock/internal/session"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), ".notelock")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	return s
}

func TestOpenAndInitialize(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), ".notelock")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer s.Close()

	initialized, err := s.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if initialized {
		t.Error("Fresh database should not be initialized")
	}

	if _, err := s.Load(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}

	if err := s.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	initialized, err = s.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if !initialized {
		t.Error("Database should be initialized")
	}
}

func TestLoadDefaults(t *testing.T) {
	s := openStore(t)

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != Defaults() {
		t.Errorf("Load() = %+v, want defaults %+v", got, Defaults())
	}
	if !got.ConfirmPassword || !got.RememberPassword || got.SinglePassword {
		t.Errorf("Unexpected default flags: %+v", got)
	}
	if got.RememberPasswordTimeout != 30 || got.RememberPasswordLevel != "filename" {
		t.Errorf("Unexpected remember defaults: %d %s", got.RememberPasswordTimeout, got.RememberPasswordLevel)
	}
}

func TestUpdate(t *testing.T) {
	s := openStore(t)

	before, err := s.GetModified()
	if err != nil {
		t.Fatalf("GetModified failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	err = s.Update(func(cur *Settings) error {
		cur.SinglePassword = true
		cur.DefaultHint = "usual"
		cur.RememberPasswordLevel = "parentPath"
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !got.SinglePassword || got.DefaultHint != "usual" || got.RememberPasswordLevel != "parentPath" {
		t.Errorf("Update not persisted: %+v", got)
	}
	if !got.ConfirmPassword {
		t.Error("Untouched fields should keep their values")
	}

	after, err := s.GetModified()
	if err != nil {
		t.Fatalf("GetModified failed: %v", err)
	}
	if !after.After(before) {
		t.Error("Modified time should advance on update")
	}
}

func TestUpdate_RejectsInvalid(t *testing.T) {
	s := openStore(t)

	cases := []func(*Settings){
		func(c *Settings) { c.RememberPasswordTimeout = -1 },
		func(c *Settings) { c.RememberPasswordTimeout = MaxRememberTimeout + 1 },
		func(c *Settings) { c.RememberPasswordLevel = "vault" },
	}
	for i, mutate := range cases {
		err := s.Update(func(cur *Settings) error {
			mutate(cur)
			return nil
		})
		if err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != Defaults() {
		t.Errorf("Rejected updates must not be stored: %+v", got)
	}
}

func TestUpdate_CallbackErrorAborts(t *testing.T) {
	s := openStore(t)
	boom := errors.New("boom")

	err := s.Update(func(cur *Settings) error {
		cur.DefaultHint = "lost"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected callback error, got %v", err)
	}

	got, _ := s.Load()
	if got.DefaultHint != "" {
		t.Error("Aborted update must not be stored")
	}
}

func TestIndexOperations(t *testing.T) {
	s := openStore(t)
	mod := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	entries := []IndexEntry{
		{Path: "notes/b.md", Kind: KindSpans, Version: "beta", Spans: 2, Size: 120, ModTime: mod},
		{Path: "notes/a.mdenc", Kind: KindDocument, Version: "alpha", Size: 300, ModTime: mod},
	}
	for _, e := range entries {
		if err := s.PutIndexEntry(e); err != nil {
			t.Fatalf("PutIndexEntry failed: %v", err)
		}
	}

	all, err := s.GetIndex()
	if err != nil {
		t.Fatalf("GetIndex failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(all))
	}
	if all[0].Path != "notes/a.mdenc" {
		t.Errorf("Entries should be ordered by path, got %s first", all[0].Path)
	}

	one, err := s.GetIndexEntry("notes/b.md")
	if err != nil {
		t.Fatalf("GetIndexEntry failed: %v", err)
	}
	if one == nil || one.Spans != 2 || !one.ModTime.Equal(mod) {
		t.Errorf("Unexpected entry: %+v", one)
	}

	if err := s.RemoveIndexEntry("notes/b.md"); err != nil {
		t.Fatalf("RemoveIndexEntry failed: %v", err)
	}
	one, err = s.GetIndexEntry("notes/b.md")
	if err != nil {
		t.Fatalf("GetIndexEntry failed: %v", err)
	}
	if one != nil {
		t.Error("Entry should be gone")
	}
}

func TestPersistenceAndCompact(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), ".notelock")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := s.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if err := s.Update(func(c *Settings) error { c.DefaultHint = "kept"; return nil }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := s.PutIndexEntry(IndexEntry{Path: "x.mdenc", Kind: KindDocument}); err != nil {
		t.Fatalf("PutIndexEntry failed: %v", err)
	}

	if err := s.Compact(); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer s.Close()

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.DefaultHint != "kept" {
		t.Errorf("Settings lost across reopen: %+v", got)
	}
	entry, err := s.GetIndexEntry("x.mdenc")
	if err != nil || entry == nil {
		t.Errorf("Index entry lost across compact: %v", err)
	}
}

func TestSessionOptions(t *testing.T) {
	st := Defaults()
	st.RememberPassword = false
	st.RememberPasswordLevel = "fullPath"

	c := session.New(st.SessionOptions()...)
	if c.Active() {
		t.Error("Cache should be inactive when remembering is off")
	}
	if c.Level() != session.LevelFullPath {
		t.Errorf("Level = %s, want fullPath", c.Level())
	}
	if c.AutoExpire() != 30*time.Minute {
		t.Errorf("AutoExpire = %v, want 30m", c.AutoExpire())
	}
}
