package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/notelock/internal/core"
)

// Encrypt turns whole plaintext documents into .mdenc files
func Encrypt(ctx context.Context, patterns []string, opts core.EncryptOptions) {
	if len(patterns) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: notelock encrypt [--hint <hint>] [--remove] [--force] <file> [file...]")
		os.Exit(1)
	}

	notes := Open()
	defer notes.Close()

	failed := 0
	for _, p := range expandPatterns(patterns) {
		dst, err := notes.EncryptDocument(ctx, p, opts)
		if err != nil {
			if interrupted(ctx, err) {
				HandleError(err)
			}
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			failed++
			continue
		}
		fmt.Printf("encrypted: %s\n", dst)
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "error: %d files failed\n", failed)
		os.Exit(1)
	}
}
