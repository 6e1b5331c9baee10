package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/illarion/notelock/internal/settings"
)

// Settings lists, reads or changes a setting. Switching singlePassword on
// asks for the password every new encryption must use.
func Settings(ctx context.Context, args []string) {
	notes := Open()
	defer notes.Close()

	current := notes.Settings()
	switch len(args) {
	case 0:
		if !notes.Initialized() {
			fmt.Println("(defaults, run 'notelock init' to persist settings)")
		}
		for _, key := range settings.Keys {
			value, _ := current.Get(key)
			fmt.Printf("  %-30s %s\n", key, value)
		}
		return
	case 1:
		value, err := current.Get(args[0])
		if err != nil {
			HandleError(err)
		}
		fmt.Println(value)
		return
	case 2:
	default:
		fmt.Fprintln(os.Stderr, "Usage: notelock settings [<key> [value]]")
		os.Exit(1)
	}

	key, value := args[0], args[1]
	if key == "singlePassword" {
		on, err := strconv.ParseBool(value)
		if err != nil {
			HandleError(fmt.Errorf("invalid value %q for %s: %w", value, key, err))
		}
		if on {
			err = notes.EnableSinglePassword(ctx)
		} else {
			err = notes.DisableSinglePassword()
		}
		if err != nil {
			HandleError(err)
		}
		fmt.Printf("%s = %t\n", key, on)
		return
	}

	err := notes.UpdateSettings(func(s *settings.Settings) error {
		return s.Set(key, value)
	})
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("%s = %s\n", key, value)
}
