package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/illarion/notelock/internal/core"
)

// Lock appends text to a document as an encrypted inline span. A text of
// "-" is read from stdin.
func Lock(ctx context.Context, file, text, hint string, visible, hidden bool) {
	if visible && hidden {
		fmt.Fprintln(os.Stderr, "error: --visible and --hidden are mutually exclusive")
		os.Exit(1)
	}

	if text == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			HandleError(fmt.Errorf("failed to read stdin: %w", err))
		}
		text = strings.TrimRight(string(data), "\n")
	}

	opts := core.SpanOptions{Hint: hint}
	switch {
	case visible:
		opts.Visible = &visible
	case hidden:
		shown := false
		opts.Visible = &shown
	}

	notes := Open()
	defer notes.Close()

	span, err := notes.LockSpan(ctx, expandPatterns([]string{file})[0], text, opts)
	if err != nil {
		HandleError(err)
	}

	marker := "hidden"
	if span.Visible {
		marker = "visible"
	}
	fmt.Printf("locked: %s (%s marker, %s)\n", file, marker, span.Version)
}
