package core

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/illarion/notelock/internal/crypto"
	"github.com/illarion/notelock/internal/payload"
	"github.com/illarion/notelock/internal/settings"
)

const (
	PlainExt    = ".md"
	KeepBothExt = ".decrypted.md"
)

// EncryptOptions control EncryptDocument
type EncryptOptions struct {
	Hint   string // empty falls back to the remembered or default hint
	Remove bool   // delete the plaintext after writing the .mdenc
	Force  bool   // replace an existing .mdenc
}

// DecryptOptions control DecryptDocument
type DecryptOptions struct {
	Remove   bool // delete the .mdenc after writing the plaintext
	Strategy ConflictStrategy
}

// DecryptResult reports where DecryptDocument put the plaintext
type DecryptResult struct {
	Source  string
	Target  string // empty when the local file was kept
	Skipped bool   // local file already had the same content
}

// EncryptedPath returns the .mdenc counterpart of a plaintext document
func EncryptedPath(p string) string {
	return strings.TrimSuffix(p, path.Ext(p)) + payload.DocumentExt
}

// PlainPath returns the plaintext counterpart of a .mdenc document
func PlainPath(p string) string {
	return strings.TrimSuffix(p, path.Ext(p)) + PlainExt
}

func isEncryptedDocument(p string) bool {
	return strings.EqualFold(path.Ext(p), payload.DocumentExt)
}

// EncryptDocument encrypts a whole plaintext file into <name>.mdenc and
// returns the path written.
func (n *Notes) EncryptDocument(ctx context.Context, src string, opts EncryptOptions) (string, error) {
	rel, err := n.root.Rel(src)
	if err != nil {
		return "", err
	}
	if isEncryptedDocument(rel) {
		return "", fmt.Errorf("%w: %s", ErrAlreadyEncrypted, rel)
	}

	data, err := n.root.ReadFile(rel)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", rel, err)
	}
	defer crypto.ClearBytes(data)
	if !DetectFileType(data) {
		return "", fmt.Errorf("%w: %s", ErrNotText, rel)
	}

	dst := EncryptedPath(rel)
	if n.root.Exists(dst) && !opts.Force {
		return "", fmt.Errorf("%w: %s", ErrAlreadyExists, dst)
	}

	ph, err := n.passwordForEncrypt(ctx, dst, opts.Hint, true)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	encoded, err := crypto.Default().Encrypt(string(data), ph.Password)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt %s: %w", rel, err)
	}

	if err := n.writeDocument(dst, payload.NewDocument(ph.Hint, encoded)); err != nil {
		return "", err
	}

	if opts.Remove {
		if err := n.root.Remove(rel); err != nil {
			return dst, fmt.Errorf("encrypted to %s but cannot remove %s: %w", dst, rel, err)
		}
		n.forget(rel)
	}

	n.log.Info().Str("doc", dst).Stringer("version", crypto.Current).Msg("document encrypted")
	return dst, nil
}

func (n *Notes) writeDocument(p string, doc *payload.Document) error {
	text, err := doc.Encode()
	if err != nil {
		return err
	}
	if err := n.root.WriteFile(p, []byte(text)); err != nil {
		return fmt.Errorf("cannot write %s: %w", p, err)
	}
	n.index(p, text)
	return nil
}

func (n *Notes) loadDocument(rel string) (*payload.Document, string, error) {
	if !isEncryptedDocument(rel) {
		return nil, "", fmt.Errorf("%w: %s", ErrNotEncrypted, rel)
	}
	data, err := n.root.ReadFile(rel)
	if err != nil {
		return nil, "", fmt.Errorf("cannot read %s: %w", rel, err)
	}
	doc, err := payload.ParseDocument(string(data))
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", rel, err)
	}
	return doc, string(data), nil
}

// openDocument decrypts doc, asking for the password as needed. The
// password that worked is returned for re-encryption.
func (n *Notes) openDocument(ctx context.Context, rel string, doc *payload.Document) (string, string, error) {
	if doc.IsEmpty() {
		return "", "", nil
	}

	v, err := doc.FormatVersion()
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", rel, err)
	}
	engine, err := crypto.Select(v)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", rel, err)
	}

	var plaintext, password string
	err = n.unlock(ctx, rel, doc.Hint, func(pw string) bool {
		text, ok := engine.DecryptTagged(v, doc.EncodedData, pw)
		if ok {
			plaintext, password = text, pw
		}
		return ok
	})
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", rel, err)
	}

	n.log.Debug().Str("doc", rel).Stringer("version", v).Msg("document decrypted")
	return plaintext, password, nil
}

// ReadDocument returns the decrypted text of a .mdenc file. An empty file
// reads as empty text.
func (n *Notes) ReadDocument(ctx context.Context, p string) (string, error) {
	rel, err := n.root.Rel(p)
	if err != nil {
		return "", err
	}
	doc, _, err := n.loadDocument(rel)
	if err != nil {
		return "", err
	}
	text, _, err := n.openDocument(ctx, rel, doc)
	return text, err
}

// DecryptDocument restores <name>.md from <name>.mdenc
func (n *Notes) DecryptDocument(ctx context.Context, src string, opts DecryptOptions) (*DecryptResult, error) {
	rel, err := n.root.Rel(src)
	if err != nil {
		return nil, err
	}
	doc, _, err := n.loadDocument(rel)
	if err != nil {
		return nil, err
	}

	text, _, err := n.openDocument(ctx, rel, doc)
	if err != nil {
		return nil, err
	}
	decrypted := []byte(text)
	defer crypto.ClearBytes(decrypted)

	result := &DecryptResult{Source: rel, Target: PlainPath(rel)}

	if n.root.Exists(result.Target) {
		local, err := n.root.ReadFile(result.Target)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", result.Target, err)
		}
		defer crypto.ClearBytes(local)

		if CompareFiles(local, decrypted) {
			result.Skipped = true
			return result, n.finishDecrypt(rel, opts)
		}

		switch opts.Strategy {
		case StrategyKeepLocal:
			result.Target = ""
			return result, nil
		case StrategyOverwrite:
		case StrategyKeepBoth:
			result.Target = strings.TrimSuffix(rel, path.Ext(rel)) + KeepBothExt
		case StrategyMerge:
			if !DetectFileType(local) || !DetectFileType(decrypted) {
				return nil, fmt.Errorf("%w: cannot merge %s", ErrNotText, result.Target)
			}
			merged, err := editMerge(result.Target, local, decrypted)
			if err != nil {
				return nil, err
			}
			decrypted = merged
		default:
			return nil, fmt.Errorf("%w: %s differs from %s", ErrAlreadyExists, result.Target, rel)
		}
	}

	if err := n.root.WriteFile(result.Target, decrypted); err != nil {
		return nil, fmt.Errorf("cannot write %s: %w", result.Target, err)
	}
	n.log.Info().Str("doc", rel).Str("target", result.Target).Msg("document decrypted")

	return result, n.finishDecrypt(rel, opts)
}

func (n *Notes) finishDecrypt(rel string, opts DecryptOptions) error {
	if !opts.Remove {
		return nil
	}
	if err := n.root.Remove(rel); err != nil {
		return fmt.Errorf("cannot remove %s: %w", rel, err)
	}
	n.forget(rel)
	return nil
}

// ChangePassword re-encrypts a .mdenc document under a new password and
// hint. An empty hint keeps the current one.
func (n *Notes) ChangePassword(ctx context.Context, p, hint string) error {
	rel, err := n.root.Rel(p)
	if err != nil {
		return err
	}
	doc, _, err := n.loadDocument(rel)
	if err != nil {
		return err
	}

	text, _, err := n.openDocument(ctx, rel, doc)
	if err != nil {
		return err
	}
	if hint == "" {
		hint = doc.Hint
	}

	ph, err := n.passwordForEncrypt(ctx, rel, hint, false)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	encoded, err := crypto.Default().Encrypt(text, ph.Password)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", rel, err)
	}
	if err := n.writeDocument(rel, payload.NewDocument(ph.Hint, encoded)); err != nil {
		return err
	}

	n.log.Info().Str("doc", rel).Msg("password changed")
	return nil
}

// Diff compares the decrypted content of a .mdenc document with a local
// plaintext file. An empty local path means the document's .md counterpart.
func (n *Notes) Diff(ctx context.Context, encrypted, local string) (string, error) {
	rel, err := n.root.Rel(encrypted)
	if err != nil {
		return "", err
	}
	if local == "" {
		local = PlainPath(rel)
	}
	localRel, err := n.root.Rel(local)
	if err != nil {
		return "", err
	}

	text, err := n.ReadDocument(ctx, rel)
	if err != nil {
		return "", err
	}
	decrypted := []byte(text)
	defer crypto.ClearBytes(decrypted)

	localData, err := n.root.ReadFile(localRel)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", localRel, err)
	}
	defer crypto.ClearBytes(localData)

	return GenerateUnifiedDiff(localRel, decrypted, localData)
}

// documentEntry describes a .mdenc file for the index
func documentEntry(rel, text string) settings.IndexEntry {
	entry := settings.IndexEntry{Path: rel, Kind: settings.KindDocument}
	if doc, err := payload.ParseDocument(text); err == nil {
		entry.Version = doc.Version
		if v, err := doc.FormatVersion(); err == nil {
			entry.Version = v.String()
		}
	}
	return entry
}
