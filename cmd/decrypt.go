package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/illarion/notelock/internal/core"
	"github.com/illarion/notelock/internal/git"
	"github.com/illarion/notelock/internal/settings"
)

// Decrypt restores plaintext documents from .mdenc files. Without patterns
// every indexed document is decrypted. An empty conflict strategy asks per
// file when running in a terminal.
func Decrypt(ctx context.Context, patterns []string, remove bool, conflict string) {
	strategy, err := core.ParseConflictStrategy(conflict)
	if err != nil {
		HandleError(err)
	}
	ask := conflict == "" && term.IsTerminal(int(os.Stdin.Fd()))

	notes := Open()
	defer notes.Close()

	targets := expandPatterns(patterns)
	if len(patterns) == 0 {
		entries, err := notes.Refresh(ctx)
		if err != nil {
			HandleError(err)
		}
		for _, e := range entries {
			if e.Kind == settings.KindDocument {
				targets = append(targets, notes.Root().Abs(e.Path))
			}
		}
		if len(targets) == 0 {
			fmt.Println("No encrypted documents found")
			return
		}
	}

	var written []string
	var decrypted, skipped, failed int
	for _, p := range targets {
		opts := core.DecryptOptions{Remove: remove, Strategy: strategy}
		result, err := notes.DecryptDocument(ctx, p, opts)
		if errors.Is(err, core.ErrAlreadyExists) && ask {
			choice, ok := askConflict(core.PlainPath(p))
			if !ok {
				skipped++
				continue
			}
			opts.Strategy = choice
			result, err = notes.DecryptDocument(ctx, p, opts)
		}
		if err != nil {
			if interrupted(ctx, err) {
				HandleError(err)
			}
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			failed++
			continue
		}

		switch {
		case result.Skipped:
			fmt.Printf("unchanged: %s\n", core.PlainPath(result.Source))
			skipped++
		case result.Target == "":
			fmt.Printf("kept local: %s\n", core.PlainPath(result.Source))
			skipped++
		default:
			fmt.Printf("decrypted: %s -> %s\n", result.Source, result.Target)
			written = append(written, result.Target)
			decrypted++
		}
	}

	fmt.Printf("\ndecrypted: %d, skipped: %d", decrypted, skipped)
	if failed > 0 {
		fmt.Printf(", failed: %d", failed)
	}
	fmt.Println()

	if len(written) > 0 {
		fmt.Print(git.Format(git.Check(ctx, notes.Root().Dir(), "", written)))
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// askConflict lets the user pick what to do with a differing local file.
// ok is false when the file should be skipped.
func askConflict(local string) (core.ConflictStrategy, bool) {
	for {
		fmt.Printf("\n%s differs from the encrypted version\n", local)
		fmt.Println("  [l] Keep local version")
		fmt.Println("  [o] Overwrite with decrypted version")
		fmt.Println("  [e] Edit merged (opens in $EDITOR)")
		fmt.Println("  [b] Keep both (save decrypted as .decrypted.md)")
		fmt.Println("  [x] Skip this file")
		fmt.Print("Choice: ")

		var response string
		fmt.Scanln(&response)
		switch strings.ToLower(strings.TrimSpace(response)) {
		case "l":
			return core.StrategyKeepLocal, true
		case "o":
			return core.StrategyOverwrite, true
		case "e":
			return core.StrategyMerge, true
		case "b":
			return core.StrategyKeepBoth, true
		case "x", "":
			return core.StrategyAbort, false
		}
	}
}
