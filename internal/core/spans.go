package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/illarion/notelock/internal/crypto"
	"github.com/illarion/notelock/internal/payload"
)

// SpanOptions control LockSpan
type SpanOptions struct {
	Hint string
	// Visible selects the marker shown in reading view; nil uses the
	// showMarkerWhenReadingDefault setting.
	Visible *bool
}

// SpanResult reports the outcome of a batch span operation
type SpanResult struct {
	Path      string
	Decrypted int
	Failed    []string // "line N: reason" for spans left untouched
}

// LockSpan encrypts text and appends it to the document as an inline span.
// The document is created when missing.
func (n *Notes) LockSpan(ctx context.Context, p, text string, opts SpanOptions) (*payload.Span, error) {
	if text == "" {
		return nil, ErrNothingToEncrypt
	}
	rel, err := n.root.Rel(p)
	if err != nil {
		return nil, err
	}
	if isEncryptedDocument(rel) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyEncrypted, rel)
	}

	body, err := n.root.ReadFile(rel)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cannot read %s: %w", rel, err)
	}
	if !DetectFileType(body) {
		return nil, fmt.Errorf("%w: %s", ErrNotText, rel)
	}

	visible := n.settings.ShowMarkerWhenReadingDefault
	if opts.Visible != nil {
		visible = *opts.Visible
	}
	if err := payload.CheckHint(opts.Hint); err != nil {
		return nil, err
	}

	ph, err := n.passwordForEncrypt(ctx, rel, opts.Hint, true)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	encoded, err := crypto.Default().Encrypt(text, ph.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}
	span, err := payload.NewSpan(ph.Hint, encoded, visible)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.Write(body)
	if len(body) > 0 && body[len(body)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString(span.String())
	b.WriteByte('\n')

	out := b.String()
	if err := n.root.WriteFile(rel, []byte(out)); err != nil {
		return nil, fmt.Errorf("cannot write %s: %w", rel, err)
	}
	n.index(rel, out)

	n.log.Info().Str("doc", rel).Bool("visible", visible).Msg("span locked")
	return span, nil
}

// spanFunc turns a decrypted span into its replacement text
type spanFunc func(m payload.Match, plaintext, password string) (string, error)

// rewriteSpans decrypts the spans of body selected by want (all when nil)
// and replaces them with the output of fn. Spans that cannot be decrypted
// stay as they are.
func (n *Notes) rewriteSpans(ctx context.Context, rel, body string, want func(payload.Match) bool, fn spanFunc) (string, *SpanResult, error) {
	result := &SpanResult{Path: rel}
	matches := payload.Scan(body)

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		b.WriteString(body[last:m.Start])
		last = m.End

		original := body[m.Start:m.End]
		if want != nil && !want(m) {
			b.WriteString(original)
			continue
		}
		line := strings.Count(body[:m.Start], "\n") + 1

		engine, err := crypto.Select(m.Span.Version)
		if err != nil {
			result.Failed = append(result.Failed, fmt.Sprintf("line %d: %v", line, err))
			b.WriteString(original)
			continue
		}

		var plaintext, password string
		err = n.unlock(ctx, rel, m.Span.Hint, func(pw string) bool {
			text, ok := engine.DecryptTagged(m.Span.Version, m.Span.EncodedData, pw)
			if ok {
				plaintext, password = text, pw
			}
			return ok
		})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", nil, err
		}
		if err != nil {
			result.Failed = append(result.Failed, fmt.Sprintf("line %d: %v", line, err))
			b.WriteString(original)
			continue
		}

		replacement, err := fn(m, plaintext, password)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(replacement)
		result.Decrypted++
	}
	b.WriteString(body[last:])

	return b.String(), result, nil
}

func (n *Notes) readPlain(p string) (string, string, error) {
	rel, err := n.root.Rel(p)
	if err != nil {
		return "", "", err
	}
	if isEncryptedDocument(rel) {
		return "", "", fmt.Errorf("%w: %s holds no inline spans", ErrAlreadyEncrypted, rel)
	}
	data, err := n.root.ReadFile(rel)
	if err != nil {
		return "", "", fmt.Errorf("cannot read %s: %w", rel, err)
	}
	return rel, string(data), nil
}

// UnlockSpans decrypts every inline span of a document in place
func (n *Notes) UnlockSpans(ctx context.Context, p string) (*SpanResult, error) {
	rel, body, err := n.readPlain(p)
	if err != nil {
		return nil, err
	}

	out, result, err := n.rewriteSpans(ctx, rel, body, nil, func(_ payload.Match, plaintext, _ string) (string, error) {
		return plaintext, nil
	})
	if err != nil {
		return nil, err
	}

	if result.Decrypted > 0 {
		if err := n.root.WriteFile(rel, []byte(out)); err != nil {
			return nil, fmt.Errorf("cannot write %s: %w", rel, err)
		}
		n.index(rel, out)
	}

	n.log.Info().Str("doc", rel).Int("decrypted", result.Decrypted).Int("failed", len(result.Failed)).Msg("spans unlocked")
	return result, nil
}

// Show returns the readable text of a document without writing anything:
// a .mdenc file is decrypted whole, any other file has its spans decrypted.
func (n *Notes) Show(ctx context.Context, p string) (string, *SpanResult, error) {
	rel, err := n.root.Rel(p)
	if err != nil {
		return "", nil, err
	}
	if isEncryptedDocument(rel) {
		text, err := n.ReadDocument(ctx, rel)
		return text, nil, err
	}

	_, body, err := n.readPlain(rel)
	if err != nil {
		return "", nil, err
	}
	return n.rewriteSpans(ctx, rel, body, nil, func(_ payload.Match, plaintext, _ string) (string, error) {
		return plaintext, nil
	})
}
