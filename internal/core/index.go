package core

import (
	"context"
	"sort"
	"time"

	"github.com/illarion/notelock/internal/crypto"
	"github.com/illarion/notelock/internal/git"
	"github.com/illarion/notelock/internal/payload"
	"github.com/illarion/notelock/internal/settings"
)

// index records what rel holds after a write. The index never stores
// plaintext, hints or passwords, and failures only get logged.
func (n *Notes) index(rel, text string) {
	if n.store == nil {
		return
	}

	entry, ok := describe(rel, text)
	if !ok {
		n.forget(rel)
		return
	}
	if info, err := n.root.Stat(rel); err == nil {
		entry.ModTime = info.ModTime()
	}
	if err := n.store.PutIndexEntry(entry); err != nil {
		n.log.Warn().Err(err).Str("doc", rel).Msg("cannot update index")
	}
}

func (n *Notes) forget(rel string) {
	if n.store == nil {
		return
	}
	if err := n.store.RemoveIndexEntry(rel); err != nil {
		n.log.Warn().Err(err).Str("doc", rel).Msg("cannot update index")
	}
}

// describe builds an index entry; ok is false for files without ciphertext
func describe(rel, text string) (settings.IndexEntry, bool) {
	if isEncryptedDocument(rel) {
		entry := documentEntry(rel, text)
		entry.Size = int64(len(text))
		return entry, true
	}

	matches := payload.Scan(text)
	if len(matches) == 0 {
		return settings.IndexEntry{}, false
	}
	oldest := crypto.Current
	for _, m := range matches {
		if m.Span.Version < oldest {
			oldest = m.Span.Version
		}
	}
	return settings.IndexEntry{
		Path:    rel,
		Kind:    settings.KindSpans,
		Version: oldest.String(),
		Spans:   len(matches),
		Size:    int64(len(text)),
	}, true
}

// Refresh walks the notes directory and rebuilds the index. It needs no
// password: only markers and format tags are read.
func (n *Notes) Refresh(ctx context.Context) ([]settings.IndexEntry, error) {
	var found []settings.IndexEntry
	seen := make(map[string]bool)

	err := n.root.Walk(func(rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := n.root.ReadFile(rel)
		if err != nil {
			n.log.Warn().Err(err).Str("doc", rel).Msg("skipping unreadable file")
			return nil
		}
		entry, ok := describe(rel, string(data))
		if !ok {
			return nil
		}
		if info, err := n.root.Stat(rel); err == nil {
			entry.ModTime = info.ModTime()
		}
		found = append(found, entry)
		seen[rel] = true
		return nil
	}, PlainExt, payload.DocumentExt)
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })

	if n.store == nil {
		return found, nil
	}

	stale, err := n.store.GetIndex()
	if err != nil {
		return nil, err
	}
	for _, e := range stale {
		if !seen[e.Path] {
			n.forget(e.Path)
		}
	}
	for _, e := range found {
		if err := n.store.PutIndexEntry(e); err != nil {
			return nil, err
		}
	}
	return found, nil
}

// StatusInfo summarizes the notes directory
type StatusInfo struct {
	Initialized  bool
	LastModified time.Time
	Settings     settings.Settings
	Entries      []settings.IndexEntry
	Legacy       int // entries still holding pre-current payloads
	GitStatus    *git.Status
}

// Status refreshes the index and checks whether decrypted counterparts of
// encrypted documents are exposed to git
func (n *Notes) Status(ctx context.Context) (*StatusInfo, error) {
	entries, err := n.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	info := &StatusInfo{
		Initialized: n.store != nil,
		Settings:    n.settings,
		Entries:     entries,
	}
	if n.store != nil {
		if modified, err := n.store.GetModified(); err == nil {
			info.LastModified = modified
		}
	}

	var plaintext []string
	for _, e := range entries {
		if e.Version != crypto.Current.String() {
			info.Legacy++
		}
		if e.Kind == settings.KindDocument {
			if plain := PlainPath(e.Path); n.root.Exists(plain) {
				plaintext = append(plaintext, plain)
			}
		}
	}

	info.GitStatus = git.Check(ctx, n.root.Dir(), n.relSettingsPath(), plaintext)
	return info, nil
}

func (n *Notes) relSettingsPath() string {
	rel, err := n.root.Rel(n.settingsPath)
	if err != nil {
		return ""
	}
	return rel
}
