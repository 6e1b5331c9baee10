package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/notelock/internal/settings"
)

// Unlock decrypts inline spans in place. Without patterns every indexed
// document holding spans is processed.
func Unlock(ctx context.Context, patterns []string) {
	notes := Open()
	defer notes.Close()

	targets := expandPatterns(patterns)
	if len(patterns) == 0 {
		entries, err := notes.Refresh(ctx)
		if err != nil {
			HandleError(err)
		}
		for _, e := range entries {
			if e.Kind == settings.KindSpans {
				targets = append(targets, notes.Root().Abs(e.Path))
			}
		}
		if len(targets) == 0 {
			fmt.Println("No encrypted spans found")
			return
		}
	}

	failed := 0
	for _, p := range targets {
		result, err := notes.UnlockSpans(ctx, p)
		if err != nil {
			if interrupted(ctx, err) {
				HandleError(err)
			}
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			failed++
			continue
		}

		fmt.Printf("unlocked: %s (%d spans)\n", result.Path, result.Decrypted)
		for _, f := range result.Failed {
			fmt.Fprintf(os.Stderr, "  left encrypted: %s\n", f)
		}
		failed += len(result.Failed)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
