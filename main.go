package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/notelock/cmd"
	"github.com/illarion/notelock/internal/core"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(ctx, os.Args[2:])
	case "encrypt":
		runEncrypt(ctx, os.Args[2:])
	case "decrypt":
		runDecrypt(ctx, os.Args[2:])
	case "lock":
		runLock(ctx, os.Args[2:])
	case "unlock":
		runUnlock(ctx, os.Args[2:])
	case "show":
		runShow(ctx, os.Args[2:])
	case "upgrade":
		runUpgrade(ctx, os.Args[2:])
	case "passwd":
		runPasswd(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "settings":
		runSettings(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// parse lets flags appear before or after positional arguments
func parse(fs *flag.FlagSet, args []string) []string {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func runInit(_ context.Context, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	parse(fs, args)

	cmd.Init()
}

func runEncrypt(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	hint := fs.String("hint", "", "Password hint stored next to the ciphertext")
	removeShort := fs.Bool("r", false, "Remove the plaintext after encrypting")
	removeLong := fs.Bool("remove", false, "Remove the plaintext after encrypting")
	force := fs.Bool("force", false, "Replace an existing .mdenc file")
	files := parse(fs, args)

	cmd.Encrypt(ctx, files, core.EncryptOptions{
		Hint:   *hint,
		Remove: *removeShort || *removeLong,
		Force:  *force,
	})
}

func runDecrypt(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	removeShort := fs.Bool("r", false, "Remove the .mdenc file after decrypting")
	removeLong := fs.Bool("remove", false, "Remove the .mdenc file after decrypting")
	conflict := fs.String("conflict", "", "abort, local, overwrite, both or merge")
	files := parse(fs, args)

	cmd.Decrypt(ctx, files, *removeShort || *removeLong, *conflict)
}

func runLock(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	hint := fs.String("hint", "", "Password hint shown when decrypting")
	visible := fs.Bool("visible", false, "Show the marker in reading view")
	hidden := fs.Bool("hidden", false, "Hide the marker in reading view")
	rest := parse(fs, args)

	if len(rest) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: notelock lock [--hint <hint>] [--visible|--hidden] <file> <text|->")
		os.Exit(1)
	}
	cmd.Lock(ctx, rest[0], rest[1], *hint, *visible, *hidden)
}

func runUnlock(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("unlock", flag.ExitOnError)
	files := parse(fs, args)

	cmd.Unlock(ctx, files)
}

func runShow(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	copyText := fs.Bool("copy", false, "Copy to the clipboard instead of printing")
	rest := parse(fs, args)

	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: notelock show [--copy] <file>")
		os.Exit(1)
	}
	cmd.Show(ctx, rest[0], *copyText)
}

func runUpgrade(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("upgrade", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Show the changes without writing")
	files := parse(fs, args)

	cmd.Upgrade(ctx, files, *dryRun)
}

func runPasswd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	hint := fs.String("hint", "", "New password hint (default: keep the current one)")
	files := parse(fs, args)

	cmd.Passwd(ctx, files, *hint)
}

func runDiff(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	rest := parse(fs, args)

	switch len(rest) {
	case 1:
		cmd.Diff(ctx, rest[0], "")
	case 2:
		cmd.Diff(ctx, rest[0], rest[1])
	default:
		fmt.Fprintln(os.Stderr, "Usage: notelock diff <file.mdenc> [local file]")
		os.Exit(1)
	}
}

func runSettings(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	rest := parse(fs, args)

	cmd.Settings(ctx, rest)
}

func runStatus(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	parse(fs, args)

	cmd.Status(ctx)
}

func runCompact(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	parse(fs, args)

	cmd.Compact(ctx)
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: notelock completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("notelock - password-based encryption for Markdown notes")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  notelock <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create the settings database in the notes directory")
	fmt.Println("  encrypt     Encrypt whole documents into .mdenc files")
	fmt.Println("  decrypt     Restore documents from .mdenc files")
	fmt.Println("  lock        Append an encrypted span to a document")
	fmt.Println("  unlock      Decrypt inline spans in place")
	fmt.Println("  show        Print a document with everything decrypted")
	fmt.Println("  upgrade     Re-encrypt legacy payloads with the current format")
	fmt.Println("  passwd      Change the password of .mdenc documents")
	fmt.Println("  diff        Compare an encrypted document with its plaintext")
	fmt.Println("  settings    List or change settings")
	fmt.Println("  status      Show encrypted documents and git exposure")
	fmt.Println("  compact     Compact the settings database")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  notelock encrypt diary.md --remove    # Encrypt and remove the original")
	fmt.Println("  notelock lock todo.md \"safe: 1234\"    # Append an encrypted span")
	fmt.Println("  notelock show todo.md                 # Read without writing")
	fmt.Println("  notelock upgrade --dry-run            # Preview format upgrades")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  NOTELOCK_ROOT, NOTELOCK_SETTINGS, NOTELOCK_PASSWORD,")
	fmt.Println("  NOTELOCK_LOG_LEVEL, NOTELOCK_LOG_JSON (also read from .env)")
	fmt.Println()
	fmt.Println("Use 'notelock help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("notelock init")
		fmt.Println()
		fmt.Println("Creates the .notelock settings database in the notes directory.")
		fmt.Println("No password is stored. Without it notelock runs on default settings.")
	case "encrypt":
		fmt.Println("notelock encrypt [--hint <hint>] [-r|--remove] [--force] <file> [file...]")
		fmt.Println()
		fmt.Println("Encrypts whole documents into <name>.mdenc files.")
		fmt.Println("Supports glob patterns for multiple files.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --hint          Password hint stored in clear next to the ciphertext")
		fmt.Println("  -r, --remove    Remove the plaintext after encrypting")
		fmt.Println("  --force         Replace an existing .mdenc file")
	case "decrypt":
		fmt.Println("notelock decrypt [-r|--remove] [--conflict <strategy>] [<file.mdenc> ...]")
		fmt.Println()
		fmt.Println("Restores <name>.md from <name>.mdenc.")
		fmt.Println("When run without file arguments, decrypts every encrypted document.")
		fmt.Println()
		fmt.Println("When <name>.md exists with different content:")
		fmt.Println("  abort      Fail (default when not in a terminal)")
		fmt.Println("  local      Keep the local file")
		fmt.Println("  overwrite  Replace the local file")
		fmt.Println("  both       Save the decrypted text as <name>.decrypted.md")
		fmt.Println("  merge      Edit a conflict-marked merge in $EDITOR")
		fmt.Println("In a terminal without --conflict you are asked per file.")
	case "lock":
		fmt.Println("notelock lock [--hint <hint>] [--visible|--hidden] <file> <text|->")
		fmt.Println()
		fmt.Println("Encrypts text and appends it to the document as an inline span.")
		fmt.Println("Use - to read the text from stdin. The document is created if missing.")
		fmt.Println("The marker style defaults to the showMarkerWhenReadingDefault setting.")
	case "unlock":
		fmt.Println("notelock unlock [<file> ...]")
		fmt.Println()
		fmt.Println("Decrypts every inline span of the documents in place.")
		fmt.Println("Spans that cannot be decrypted are left as they are.")
	case "show":
		fmt.Println("notelock show [--copy] <file>")
		fmt.Println()
		fmt.Println("Prints a document with its spans, or the whole .mdenc, decrypted.")
		fmt.Println("Nothing is written to disk. --copy puts the text on the clipboard.")
	case "upgrade":
		fmt.Println("notelock upgrade [--dry-run] [<file> ...]")
		fmt.Println()
		fmt.Println("Re-encrypts payloads written in older formats with the current one,")
		fmt.Println("keeping their passwords and hints. --dry-run prints the diff only.")
	case "passwd":
		fmt.Println("notelock passwd [--hint <hint>] <file.mdenc> [file...]")
		fmt.Println()
		fmt.Println("Re-encrypts documents under a new password.")
	case "diff":
		fmt.Println("notelock diff <file.mdenc> [local file]")
		fmt.Println()
		fmt.Println("Shows a unified diff between the decrypted document and the local")
		fmt.Println("plaintext (default: the .md next to it).")
	case "settings":
		fmt.Println("notelock settings [<key> [value]]")
		fmt.Println()
		fmt.Println("Lists all settings, prints one, or changes one.")
		fmt.Println("Setting singlePassword to true asks for the password all new")
		fmt.Println("encryptions must use.")
	case "status":
		fmt.Println("notelock status")
		fmt.Println()
		fmt.Println("Lists encrypted documents and their formats, and warns about")
		fmt.Println("decrypted notes that git would commit. Does not require a password.")
	case "compact":
		fmt.Println("notelock compact")
		fmt.Println()
		fmt.Println("Compacts the settings database to reclaim unused disk space.")
	case "completion":
		fmt.Println("notelock completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  eval \"$(notelock completion bash)\"          # ~/.bashrc")
		fmt.Println("  eval \"$(notelock completion zsh)\"           # ~/.zshrc")
		fmt.Println("  notelock completion fish | source            # config.fish")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
