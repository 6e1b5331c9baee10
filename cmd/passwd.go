package cmd

import (
	"context"
	"fmt"
	"os"
)

// Passwd re-encrypts .mdenc documents under a new password
func Passwd(ctx context.Context, patterns []string, hint string) {
	if len(patterns) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: notelock passwd [--hint <hint>] <file.mdenc> [file...]")
		os.Exit(1)
	}

	notes := Open()
	defer notes.Close()

	failed := 0
	for _, p := range expandPatterns(patterns) {
		if err := notes.ChangePassword(ctx, p, hint); err != nil {
			if interrupted(ctx, err) {
				HandleError(err)
			}
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			failed++
			continue
		}
		if rel, err := notes.Root().Rel(p); err == nil {
			p = rel
		}
		fmt.Printf("password changed: %s\n", p)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
