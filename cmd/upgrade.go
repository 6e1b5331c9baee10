package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/notelock/internal/crypto"
)

// Upgrade re-encrypts legacy payloads with the current format. Without
// patterns every indexed document holding legacy payloads is upgraded.
func Upgrade(ctx context.Context, patterns []string, dryRun bool) {
	notes := Open()
	defer notes.Close()

	targets := expandPatterns(patterns)
	if len(patterns) == 0 {
		entries, err := notes.Refresh(ctx)
		if err != nil {
			HandleError(err)
		}
		for _, e := range entries {
			if e.Version != crypto.Current.String() {
				targets = append(targets, notes.Root().Abs(e.Path))
			}
		}
		if len(targets) == 0 {
			fmt.Println("Everything already uses the current format")
			return
		}
	}

	var upgraded, failed int
	for _, p := range targets {
		result, err := notes.Upgrade(ctx, p, dryRun)
		if err != nil {
			if interrupted(ctx, err) {
				HandleError(err)
			}
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			failed++
			continue
		}

		for _, f := range result.Failed {
			fmt.Fprintf(os.Stderr, "  %s: left as is: %s\n", result.Path, f)
		}
		if result.Upgraded == 0 {
			continue
		}
		upgraded += result.Upgraded
		if dryRun {
			fmt.Print(result.Diff)
		} else {
			fmt.Printf("upgraded: %s (%d payloads)\n", result.Path, result.Upgraded)
		}
	}

	if dryRun {
		fmt.Printf("\n%d payloads would be upgraded (dry run)\n", upgraded)
	} else {
		fmt.Printf("\n%d payloads upgraded\n", upgraded)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
