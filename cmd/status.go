package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/notelock/internal/crypto"
	"github.com/illarion/notelock/internal/git"
	"github.com/illarion/notelock/internal/settings"
)

// Status lists encrypted documents and checks for decrypted notes exposed
// to git. No password is needed.
func Status(ctx context.Context) {
	notes := Open()
	defer notes.Close()

	info, err := notes.Status(ctx)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Notes: %s\n", notes.Root().Dir())
	if info.Initialized {
		fmt.Printf("Settings: %s", notes.SettingsPath())
		if !info.LastModified.IsZero() {
			fmt.Printf(" (last modified: %s)", info.LastModified.Format(time.RFC3339))
		}
		fmt.Println()
	} else {
		fmt.Println("Settings: defaults (run 'notelock init' to persist settings)")
	}
	if info.Settings.SinglePassword {
		fmt.Println("Single password mode: on")
	}

	fmt.Println("\nEncrypted:")
	if len(info.Entries) == 0 {
		fmt.Println("  (none)")
	}
	for _, e := range info.Entries {
		icon := "*"
		if e.Version != crypto.Current.String() {
			icon = "!"
		}
		switch e.Kind {
		case settings.KindDocument:
			fmt.Printf("  %s %s (document, %s, %s)\n", icon, e.Path, e.Version, formatSize(e.Size))
		default:
			fmt.Printf("  %s %s (%d spans, oldest %s)\n", icon, e.Path, e.Spans, e.Version)
		}
	}
	if info.Legacy > 0 {
		fmt.Printf("\n%d files use an older format, run 'notelock upgrade'\n", info.Legacy)
	}

	fmt.Print(git.Format(info.GitStatus))
}
