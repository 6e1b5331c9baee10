package cmd

import (
	"context"
	"fmt"
	"os"
)

// Compact compacts the settings database to reclaim unused space
func Compact(_ context.Context) {
	notes := Open()
	defer notes.Close()

	info, err := os.Stat(notes.SettingsPath())
	if err != nil {
		HandleError(err)
	}
	sizeBefore := info.Size()

	if err := notes.Compact(); err != nil {
		HandleError(err)
	}

	info, err = os.Stat(notes.SettingsPath())
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(info.Size()))
}
