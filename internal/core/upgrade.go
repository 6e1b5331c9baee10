package core

import (
	"context"
	"fmt"

	"github.com/illarion/notelock/internal/crypto"
	"github.com/illarion/notelock/internal/payload"
)

// UpgradeResult reports what Upgrade changed or would change
type UpgradeResult struct {
	Path     string
	Upgraded int      // payloads re-encrypted with the current format
	Failed   []string // spans that could not be decrypted
	Diff     string   // unified diff of the file text
	Written  bool
}

// Upgrade re-encrypts every legacy payload of a document with the current
// format, keeping each payload's password and hint. With dryRun the file
// is left untouched and only the diff is produced.
func (n *Notes) Upgrade(ctx context.Context, p string, dryRun bool) (*UpgradeResult, error) {
	rel, err := n.root.Rel(p)
	if err != nil {
		return nil, err
	}

	var before, after string
	result := &UpgradeResult{Path: rel}

	if isEncryptedDocument(rel) {
		before, after, err = n.upgradeDocument(ctx, rel, result)
	} else {
		before, after, err = n.upgradeSpans(ctx, rel, result)
	}
	if err != nil {
		return nil, err
	}
	if result.Upgraded == 0 {
		return result, nil
	}

	result.Diff, err = GenerateUnifiedDiff(rel, []byte(before), []byte(after))
	if err != nil {
		return nil, err
	}
	if dryRun {
		return result, nil
	}

	if err := n.root.WriteFile(rel, []byte(after)); err != nil {
		return nil, fmt.Errorf("cannot write %s: %w", rel, err)
	}
	n.index(rel, after)
	result.Written = true

	n.log.Info().Str("doc", rel).Int("upgraded", result.Upgraded).Msg("document upgraded")
	return result, nil
}

func (n *Notes) upgradeDocument(ctx context.Context, rel string, result *UpgradeResult) (string, string, error) {
	doc, before, err := n.loadDocument(rel)
	if err != nil {
		return "", "", err
	}
	if doc.IsEmpty() {
		return before, before, nil
	}
	v, err := doc.FormatVersion()
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", rel, err)
	}
	if v == crypto.Current {
		return before, before, nil
	}

	text, password, err := n.openDocument(ctx, rel, doc)
	if err != nil {
		return "", "", err
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	encoded, err := crypto.Default().Encrypt(text, password)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt %s: %w", rel, err)
	}

	after, err := payload.NewDocument(doc.Hint, encoded).Encode()
	if err != nil {
		return "", "", err
	}
	result.Upgraded = 1
	return before, after, nil
}

func (n *Notes) upgradeSpans(ctx context.Context, rel string, result *UpgradeResult) (string, string, error) {
	_, before, err := n.readPlain(rel)
	if err != nil {
		return "", "", err
	}

	isLegacy := func(m payload.Match) bool { return m.Span.Version != crypto.Current }
	after, spans, err := n.rewriteSpans(ctx, rel, before, isLegacy, func(m payload.Match, plaintext, password string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		encoded, err := crypto.Default().Encrypt(plaintext, password)
		if err != nil {
			return "", err
		}
		span, err := payload.NewSpan(m.Span.Hint, encoded, m.Span.Visible)
		if err != nil {
			return "", err
		}
		result.Upgraded++
		return span.String(), nil
	})
	if err != nil {
		return "", "", err
	}
	result.Failed = spans.Failed
	return before, after, nil
}
