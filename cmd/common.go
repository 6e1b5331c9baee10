package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/illarion/notelock/internal/config"
	"github.com/illarion/notelock/internal/core"
	"github.com/illarion/notelock/internal/crypto"
	"github.com/illarion/notelock/internal/logger"
	"github.com/illarion/notelock/internal/payload"
	"github.com/illarion/notelock/internal/security"
	"github.com/illarion/notelock/internal/settings"
)

// Open loads the configuration and opens the notes directory. Every command
// runs as one session: a password entered once is offered to the rest of
// the batch.
func Open() *core.Notes {
	cfg, err := config.Load()
	if err != nil {
		HandleError(err)
	}

	var log *logger.Logger
	if cfg.LogJSON {
		log = logger.NewJSON(cfg.LogLevel, os.Stderr)
	} else {
		log = logger.New(cfg.LogLevel, os.Stderr)
	}

	notes, err := core.New(cfg.Root,
		core.WithSettingsPath(cfg.SettingsPath()),
		core.WithPrompter(core.NewTerminalPrompter()),
		core.WithPassword(cfg.Password),
		core.WithLogger(log),
	)
	if err != nil {
		HandleError(err)
	}
	return notes
}

// expandPatterns resolves glob patterns relative to the working directory.
// Patterns without matches are passed through so the error names them.
func expandPatterns(patterns []string) []string {
	var out []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil || len(matches) == 0 {
			matches = []string{p}
		}
		for _, m := range matches {
			if abs, err := filepath.Abs(m); err == nil {
				m = abs
			}
			out = append(out, m)
		}
	}
	return out
}

// interrupted reports whether err is the user cancelling the command
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

// HandleError prints err with a hint where one helps and exits
func HandleError(err error) {
	var unsupported *crypto.UnsupportedVersionError
	switch {
	case errors.Is(err, core.ErrNotInitialized):
		fmt.Fprintf(os.Stderr, "Error: notelock not initialized\n")
		fmt.Fprintf(os.Stderr, "Run 'notelock init' first\n")
	case errors.Is(err, core.ErrDecryptFailed):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "The password is wrong or the file is damaged\n")
	case errors.Is(err, core.ErrPasswordRequired):
		fmt.Fprintf(os.Stderr, "Error: password required\n")
		fmt.Fprintf(os.Stderr, "Run in a terminal or set %sPASSWORD\n", config.Prefix)
	case errors.Is(err, core.ErrCanonicalPasswordUnset):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Run 'notelock settings singlePassword true' to set it\n")
	case errors.As(err, &unsupported):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "The file was written by a newer notelock\n")
	case errors.Is(err, security.ErrPathEscapes):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Only files below the notes directory can be used\n")
	case errors.Is(err, payload.ErrInvalidHint):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Hints cannot contain 💡 or 🔐\n")
	case errors.Is(err, settings.ErrUnknownKey):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Known settings: %s\n", strings.Join(settings.Keys, ", "))
	case errors.Is(err, config.ErrParsingConfig):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Check the %s* environment variables\n", config.Prefix)
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
