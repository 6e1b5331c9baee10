package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/notelock/internal/crypto"
	"github.com/illarion/notelock/internal/logger"
	"github.com/illarion/notelock/internal/security"
	"github.com/illarion/notelock/internal/session"
	"github.com/illarion/notelock/internal/settings"
)

const SettingsFile = ".notelock"

var (
	ErrNotInitialized         = errors.New("notelock not initialized")
	ErrAlreadyExists          = errors.New("file already exists")
	ErrDecryptFailed          = errors.New("wrong password or corrupted data")
	ErrPasswordMismatch       = errors.New("password does not match the single password")
	ErrCanonicalPasswordUnset = errors.New("single password mode is on but no password is set")
	ErrPasswordsDiffer        = errors.New("passwords do not match")
	ErrPasswordRequired       = errors.New("password required")
	ErrEmptyPassword          = errors.New("empty password")
	ErrNotText                = errors.New("not a text file")
	ErrAlreadyEncrypted       = errors.New("document is already encrypted")
	ErrNotEncrypted           = errors.New("not an encrypted document")
	ErrNothingToEncrypt       = errors.New("nothing to encrypt")
)

// Notes performs notelock operations on documents below one directory.
// One Notes value is one session: passwords remembered by an operation are
// offered to the following ones until Close.
type Notes struct {
	root         *security.NotesRoot
	store        *settings.Store
	settingsPath string
	settings     settings.Settings
	cache        *session.Cache
	prompt       Prompter
	password     string
	log          *logger.Logger
}

// Option configures Notes
type Option func(*Notes)

// WithSettingsPath overrides the settings database location
func WithSettingsPath(path string) Option {
	return func(n *Notes) { n.settingsPath = path }
}

func WithPrompter(p Prompter) Option {
	return func(n *Notes) {
		if p != nil {
			n.prompt = p
		}
	}
}

// WithPassword supplies a password to try before prompting
func WithPassword(password string) Option {
	return func(n *Notes) { n.password = password }
}

func WithLogger(l *logger.Logger) Option {
	return func(n *Notes) {
		if l != nil {
			n.log = l
		}
	}
}

// New opens the notes directory. A missing settings database is not an
// error: defaults apply until Init is called.
func New(dir string, opts ...Option) (*Notes, error) {
	root, err := security.New(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open notes directory: %w", err)
	}

	n := &Notes{
		root:     root,
		settings: settings.Defaults(),
		prompt:   noPrompter{},
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.settingsPath == "" {
		n.settingsPath = filepath.Join(root.Dir(), SettingsFile)
	}
	n.log = n.log.With("core")

	if _, err := os.Stat(n.settingsPath); err == nil {
		if err := n.openStore(); err != nil {
			root.Close()
			return nil, err
		}
	}

	n.cache = session.New(append(n.settings.SessionOptions(), session.WithLogger(n.log))...)
	return n, nil
}

func (n *Notes) openStore() error {
	store, err := settings.Open(n.settingsPath)
	if err != nil {
		return err
	}
	loaded, err := store.Load()
	if err != nil {
		store.Close()
		if errors.Is(err, settings.ErrNotInitialized) {
			return ErrNotInitialized
		}
		return fmt.Errorf("failed to load settings: %w", err)
	}
	n.store = store
	n.settings = loaded
	return nil
}

// Close ends the session and releases the settings database
func (n *Notes) Close() error {
	n.cache.Close()
	var errs []error
	if n.store != nil {
		errs = append(errs, n.store.Close())
	}
	errs = append(errs, n.root.Close())
	return errors.Join(errs...)
}

// Root returns the confined notes directory
func (n *Notes) Root() *security.NotesRoot {
	return n.root
}

// SettingsPath returns the location of the settings database
func (n *Notes) SettingsPath() string {
	return n.settingsPath
}

// Cache returns the session password cache
func (n *Notes) Cache() *session.Cache {
	return n.cache
}

// Init creates the settings database with default settings
func (n *Notes) Init() error {
	if n.store != nil {
		return ErrAlreadyExists
	}
	if _, err := os.Stat(n.settingsPath); err == nil {
		return ErrAlreadyExists
	}

	store, err := settings.Open(n.settingsPath)
	if err != nil {
		return fmt.Errorf("failed to create settings database: %w", err)
	}
	if err := store.Initialize(); err != nil {
		store.Close()
		return fmt.Errorf("failed to initialize settings database: %w", err)
	}
	n.store = store
	n.settings = settings.Defaults()
	n.applySettings()

	n.log.Info().Str("path", n.settingsPath).Msg("settings database created")
	return nil
}

// Initialized reports whether a settings database is open
func (n *Notes) Initialized() bool {
	return n.store != nil
}

// Settings returns the settings in effect
func (n *Notes) Settings() settings.Settings {
	return n.settings
}

// UpdateSettings changes persisted settings and applies them to the session
func (n *Notes) UpdateSettings(fn func(*settings.Settings) error) error {
	if n.store == nil {
		return ErrNotInitialized
	}
	if err := n.store.Update(fn); err != nil {
		return err
	}
	loaded, err := n.store.Load()
	if err != nil {
		return err
	}
	n.settings = loaded
	n.applySettings()
	return nil
}

func (n *Notes) applySettings() {
	level, err := session.ParseLevel(n.settings.RememberPasswordLevel)
	if err != nil {
		level = session.LevelFilename
	}
	n.cache.SetActive(n.settings.RememberPassword)
	n.cache.SetAutoExpire(n.settings.RememberPasswordTimeout)
	n.cache.SetLevel(level)
}

// EnableSinglePassword asks for the canonical password and stores its
// canary. From then on new ciphertext is only produced with that password.
func (n *Notes) EnableSinglePassword(ctx context.Context) error {
	if n.store == nil {
		return ErrNotInitialized
	}

	var password string
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		pw, err := n.prompt.Password(ctx, PasswordRequest{
			Doc:        "single password",
			Encrypting: true,
			Confirm:    true,
			Attempt:    attempt,
		})
		if err == nil && pw == "" {
			err = ErrEmptyPassword
		}
		if err == nil {
			password = pw
			break
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}
	if password == "" {
		return lastErr
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	canary, err := crypto.Default().UsePassword(password)
	if err != nil {
		return fmt.Errorf("failed to bind single password: %w", err)
	}

	err = n.UpdateSettings(func(s *settings.Settings) error {
		s.SinglePassword = true
		s.EncryptedString = canary
		return nil
	})
	if err != nil {
		return err
	}
	// remembered passwords may differ from the canonical one
	n.cache.Clear()
	n.log.Info().Msg("single password mode enabled")
	return nil
}

// DisableSinglePassword turns the mode off and forgets the canary
func (n *Notes) DisableSinglePassword() error {
	return n.UpdateSettings(func(s *settings.Settings) error {
		s.SinglePassword = false
		s.EncryptedString = ""
		return nil
	})
}

// Compact removes unused space from the settings database
func (n *Notes) Compact() error {
	if n.store == nil {
		return ErrNotInitialized
	}
	return n.store.Compact()
}
