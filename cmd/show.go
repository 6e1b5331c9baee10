package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
)

// Show prints the readable text of a document without changing it, or
// copies it to the clipboard
func Show(ctx context.Context, file string, copyText bool) {
	notes := Open()
	defer notes.Close()

	text, result, err := notes.Show(ctx, expandPatterns([]string{file})[0])
	if err != nil {
		HandleError(err)
	}
	if result != nil {
		for _, f := range result.Failed {
			fmt.Fprintf(os.Stderr, "warning: left encrypted: %s\n", f)
		}
	}

	if !copyText {
		fmt.Print(text)
		return
	}
	if clipboard.Unsupported {
		HandleError(fmt.Errorf("clipboard is not available on this system"))
	}
	if err := clipboard.WriteAll(text); err != nil {
		HandleError(fmt.Errorf("failed to copy to clipboard: %w", err))
	}
	fmt.Fprintln(os.Stderr, "Copied to clipboard")
}
