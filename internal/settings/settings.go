package settings

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/illarion/notelock/internal/payload"
	"github.com/illarion/notelock/internal/session"
)

const MaxRememberTimeout = 120 // minutes

var (
	ErrUnknownKey  = errors.New("unknown setting")
	ErrReadOnlyKey = errors.New("setting cannot be changed directly")
)

// Settings are the persisted user preferences. No password is stored here;
// EncryptedString is only a canary ciphertext for single-password mode.
type Settings struct {
	ConfirmPassword              bool   `json:"confirmPassword"`
	RememberPassword             bool   `json:"rememberPassword"`
	RememberPasswordTimeout      int    `json:"rememberPasswordTimeout"`
	RememberPasswordLevel        string `json:"rememberPasswordLevel"`
	SinglePassword               bool   `json:"singlePassword"`
	DefaultHint                  string `json:"defaultHint"`
	EncryptedString              string `json:"encryptedString"`
	ShowMarkerWhenReadingDefault bool   `json:"showMarkerWhenReadingDefault"`
}

// Defaults returns the settings of a fresh store
func Defaults() Settings {
	return Settings{
		ConfirmPassword:              true,
		RememberPassword:             true,
		RememberPasswordTimeout:      30,
		RememberPasswordLevel:        string(session.LevelFilename),
		ShowMarkerWhenReadingDefault: true,
	}
}

// Validate checks value ranges
func (s Settings) Validate() error {
	if s.RememberPasswordTimeout < 0 || s.RememberPasswordTimeout > MaxRememberTimeout {
		return fmt.Errorf("remember timeout must be between 0 and %d minutes", MaxRememberTimeout)
	}
	if _, err := session.ParseLevel(s.RememberPasswordLevel); err != nil {
		return err
	}
	return payload.CheckHint(s.DefaultHint)
}

// SessionOptions translates the remember-password settings into cache options
func (s Settings) SessionOptions() []session.Option {
	level, err := session.ParseLevel(s.RememberPasswordLevel)
	if err != nil {
		level = session.LevelFilename
	}
	return []session.Option{
		session.WithActive(s.RememberPassword),
		session.WithAutoExpire(s.RememberPasswordTimeout),
		session.WithLevel(level),
	}
}

// Keys lists the user-visible settings in display order
var Keys = []string{
	"confirmPassword",
	"rememberPassword",
	"rememberPasswordTimeout",
	"rememberPasswordLevel",
	"singlePassword",
	"defaultHint",
	"showMarkerWhenReadingDefault",
}

// Get returns a setting rendered as text
func (s Settings) Get(key string) (string, error) {
	switch key {
	case "confirmPassword":
		return strconv.FormatBool(s.ConfirmPassword), nil
	case "rememberPassword":
		return strconv.FormatBool(s.RememberPassword), nil
	case "rememberPasswordTimeout":
		return strconv.Itoa(s.RememberPasswordTimeout), nil
	case "rememberPasswordLevel":
		return s.RememberPasswordLevel, nil
	case "singlePassword":
		return strconv.FormatBool(s.SinglePassword), nil
	case "defaultHint":
		return s.DefaultHint, nil
	case "showMarkerWhenReadingDefault":
		return strconv.FormatBool(s.ShowMarkerWhenReadingDefault), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set parses value into the named setting. singlePassword needs a password
// prompt and is switched on elsewhere.
func (s *Settings) Set(key, value string) error {
	invalid := func(err error) error {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}

	switch key {
	case "confirmPassword", "rememberPassword", "showMarkerWhenReadingDefault":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return invalid(err)
		}
		switch key {
		case "confirmPassword":
			s.ConfirmPassword = b
		case "rememberPassword":
			s.RememberPassword = b
		default:
			s.ShowMarkerWhenReadingDefault = b
		}
	case "rememberPasswordTimeout":
		minutes, err := strconv.Atoi(value)
		if err != nil {
			return invalid(err)
		}
		s.RememberPasswordTimeout = minutes
	case "rememberPasswordLevel":
		s.RememberPasswordLevel = value
	case "defaultHint":
		s.DefaultHint = value
	case "singlePassword", "encryptedString":
		return fmt.Errorf("%w: %s", ErrReadOnlyKey, key)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}
