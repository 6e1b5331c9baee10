package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/illarion/notelock/internal/core"
)

// Init creates the settings database in the notes directory
func Init() {
	notes := Open()
	defer notes.Close()

	if err := notes.Init(); err != nil {
		if errors.Is(err, core.ErrAlreadyExists) {
			fmt.Fprintf(os.Stderr, "Error: %s already exists\n", notes.SettingsPath())
			fmt.Fprintf(os.Stderr, "Use 'notelock status' to see current state\n")
			os.Exit(1)
		}
		HandleError(err)
	}

	fmt.Printf("✓ Initialized %s\n", notes.SettingsPath())
}
