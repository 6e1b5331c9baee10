package cmd

import (
	"context"
	"fmt"
)

// Diff compares an encrypted document with its local plaintext
func Diff(ctx context.Context, encrypted, local string) {
	notes := Open()
	defer notes.Close()

	if local != "" {
		local = expandPatterns([]string{local})[0]
	}
	diff, err := notes.Diff(ctx, expandPatterns([]string{encrypted})[0], local)
	if err != nil {
		HandleError(err)
	}

	if diff == "" {
		fmt.Println("No differences")
		return
	}
	fmt.Print(diff)
}
