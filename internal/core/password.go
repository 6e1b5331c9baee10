package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/illarion/notelock/internal/crypto"
	"github.com/illarion/notelock/internal/payload"
	"github.com/illarion/notelock/internal/session"
)

// MaxAttempts bounds how often a password is asked for before giving up
const MaxAttempts = 3

// PasswordRequest describes what a prompt is for
type PasswordRequest struct {
	Doc        string // document the password is for
	Hint       string // shown when decrypting
	Encrypting bool
	Confirm    bool // ask twice
	Attempt    int  // starts at 1
}

// Prompter asks the user for a password
type Prompter interface {
	Password(ctx context.Context, req PasswordRequest) (string, error)
}

// TerminalPrompter reads passwords from the controlling terminal without echo
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

// NewTerminalPrompter prompts on stderr so stdout stays usable for output
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

func (p *TerminalPrompter) Password(ctx context.Context, req PasswordRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrPasswordRequired
	}

	if req.Attempt > 1 {
		fmt.Fprintf(p.Out, "attempt %d of %d\n", req.Attempt, MaxAttempts)
	}
	if !req.Encrypting && req.Hint != "" {
		fmt.Fprintf(p.Out, "Hint: %s\n", req.Hint)
	}

	password, err := p.read(fd, fmt.Sprintf("Password for %s: ", req.Doc))
	if err != nil {
		return "", err
	}
	if !req.Confirm {
		return password, nil
	}

	confirm, err := p.read(fd, "Confirm password: ")
	if err != nil {
		return "", err
	}
	if !crypto.ConstantTimeCompare([]byte(password), []byte(confirm)) {
		return "", ErrPasswordsDiffer
	}
	return password, nil
}

func (p *TerminalPrompter) read(fd int, prompt string) (string, error) {
	fmt.Fprint(p.Out, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	defer crypto.ClearBytes(b)
	return string(b), nil
}

type noPrompter struct{}

func (noPrompter) Password(context.Context, PasswordRequest) (string, error) {
	return "", ErrPasswordRequired
}

// retryable reports whether another prompt may fix err
func retryable(err error) bool {
	return errors.Is(err, ErrPasswordsDiffer) ||
		errors.Is(err, ErrPasswordMismatch) ||
		errors.Is(err, ErrEmptyPassword)
}

// candidates returns remembered and configured passwords to try before
// prompting, without duplicates.
func (n *Notes) candidates(doc string) []string {
	var out []string
	if ph, ok := n.cache.Recall(doc); ok && ph.Password != "" {
		out = append(out, ph.Password)
	}
	if n.password != "" && (len(out) == 0 || out[0] != n.password) {
		out = append(out, n.password)
	}
	return out
}

// unlock finds a password that makes try succeed. On success the password
// is remembered for the scope of doc together with hint.
func (n *Notes) unlock(ctx context.Context, doc, hint string, try func(password string) bool) error {
	tried := false
	for _, pw := range n.candidates(doc) {
		if err := ctx.Err(); err != nil {
			return err
		}
		tried = true
		if try(pw) {
			n.cache.Remember(doc, session.PasswordAndHint{Password: pw, Hint: hint})
			return nil
		}
	}

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		pw, err := n.prompt.Password(ctx, PasswordRequest{Doc: doc, Hint: hint, Attempt: attempt})
		if errors.Is(err, ErrPasswordRequired) && tried {
			return ErrDecryptFailed
		}
		if err != nil {
			return err
		}
		tried = true
		if try(pw) {
			n.cache.Remember(doc, session.PasswordAndHint{Password: pw, Hint: hint})
			return nil
		}
		n.log.Warn().Str("doc", doc).Int("attempt", attempt).Msg("wrong password")
	}
	return ErrDecryptFailed
}

// checkCanonical enforces single-password mode for a new ciphertext
func (n *Notes) checkCanonical(password string) error {
	if !n.settings.SinglePassword {
		return nil
	}
	if n.settings.EncryptedString == "" {
		return ErrCanonicalPasswordUnset
	}
	if !crypto.Default().CheckPassword(n.settings.EncryptedString, password) {
		return ErrPasswordMismatch
	}
	return nil
}

// passwordForEncrypt picks the password and hint for new ciphertext.
// Remembered and configured passwords are reused when they pass the
// single-password check; otherwise the user is asked.
func (n *Notes) passwordForEncrypt(ctx context.Context, doc, hint string, reuse bool) (session.PasswordAndHint, error) {
	if n.settings.SinglePassword && n.settings.EncryptedString == "" {
		return session.PasswordAndHint{}, ErrCanonicalPasswordUnset
	}

	cached, hasCached := n.cache.Recall(doc)
	if hint == "" {
		hint = n.settings.DefaultHint
		if hasCached && cached.Hint != "" && payload.CheckHint(cached.Hint) == nil {
			hint = cached.Hint
		}
	}

	if reuse {
		for _, pw := range n.candidates(doc) {
			if err := ctx.Err(); err != nil {
				return session.PasswordAndHint{}, err
			}
			if n.checkCanonical(pw) == nil {
				return n.remember(doc, pw, hint), nil
			}
		}
	}

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return session.PasswordAndHint{}, err
		}
		pw, err := n.prompt.Password(ctx, PasswordRequest{
			Doc:        doc,
			Hint:       hint,
			Encrypting: true,
			Confirm:    n.settings.ConfirmPassword,
			Attempt:    attempt,
		})
		if err == nil && pw == "" {
			err = ErrEmptyPassword
		}
		if err == nil {
			err = n.checkCanonical(pw)
		}
		if err == nil {
			return n.remember(doc, pw, hint), nil
		}
		if !retryable(err) {
			return session.PasswordAndHint{}, err
		}
		n.log.Warn().Str("doc", doc).Int("attempt", attempt).Err(err).Msg("password rejected")
		lastErr = err
	}
	return session.PasswordAndHint{}, lastErr
}

func (n *Notes) remember(doc, password, hint string) session.PasswordAndHint {
	ph := session.PasswordAndHint{Password: password, Hint: hint}
	n.cache.Remember(doc, ph)
	return ph
}
