package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_notelock() {
    local cur prev words cword
    _init_completion || return

    local commands="init encrypt decrypt lock unlock show upgrade passwd diff settings status compact help completion"
    local keys="confirmPassword rememberPassword rememberPasswordTimeout rememberPasswordLevel singlePassword defaultHint showMarkerWhenReadingDefault"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        encrypt)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--hint --remove --force" -- "$cur"))
            else
                _filedir md
            fi
            ;;
        decrypt)
            if [[ "$prev" == "--conflict" ]]; then
                COMPREPLY=($(compgen -W "abort local overwrite both merge" -- "$cur"))
            elif [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--remove --conflict" -- "$cur"))
            else
                _filedir mdenc
            fi
            ;;
        lock)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--hint --visible --hidden" -- "$cur"))
            else
                _filedir md
            fi
            ;;
        unlock|show|upgrade|diff|passwd)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--copy --dry-run --hint" -- "$cur"))
            else
                _filedir
            fi
            ;;
        settings)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "$keys" -- "$cur"))
            fi
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _notelock notelock
`

const zshCompletion = `#compdef notelock

_notelock() {
    local -a commands
    commands=(
        'init:Create the settings database in the notes directory'
        'encrypt:Encrypt whole documents into .mdenc files'
        'decrypt:Restore documents from .mdenc files'
        'lock:Append an encrypted span to a document'
        'unlock:Decrypt inline spans in place'
        'show:Print a document with everything decrypted'
        'upgrade:Re-encrypt legacy payloads with the current format'
        'passwd:Change the password of .mdenc documents'
        'diff:Compare an encrypted document with its plaintext'
        'settings:List or change settings'
        'status:Show encrypted documents and git exposure'
        'compact:Compact the settings database'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'notelock commands' commands
            ;;
        args)
            case "${words[2]}" in
                encrypt)
                    _arguments \
                        '--hint[Password hint]:hint:' \
                        '--remove[Remove the plaintext after encrypting]' \
                        '--force[Replace an existing .mdenc]' \
                        '*:file:_files -g "*.md"'
                    ;;
                decrypt)
                    _arguments \
                        '--remove[Remove the .mdenc after decrypting]' \
                        '--conflict[Conflict strategy]:strategy:(abort local overwrite both merge)' \
                        '*:file:_files -g "*.mdenc"'
                    ;;
                lock)
                    _arguments \
                        '--hint[Password hint]:hint:' \
                        '--visible[Show the marker in reading view]' \
                        '--hidden[Hide the marker in reading view]' \
                        '1:file:_files -g "*.md"'
                    ;;
                settings)
                    _values 'setting' confirmPassword rememberPassword rememberPasswordTimeout \
                        rememberPasswordLevel singlePassword defaultHint showMarkerWhenReadingDefault
                    ;;
                help)
                    _describe -t commands 'notelock commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
                *)
                    _files
                    ;;
            esac
            ;;
    esac
}

_notelock "$@"
`

const fishCompletion = `# notelock fish completions

set -l commands init encrypt decrypt lock unlock show upgrade passwd diff settings status compact help completion

complete -c notelock -f

# Commands
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create the settings database'
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a encrypt -d 'Encrypt whole documents'
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a decrypt -d 'Restore documents'
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a lock -d 'Append an encrypted span'
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a unlock -d 'Decrypt inline spans'
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a show -d 'Print decrypted document'
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a upgrade -d 'Upgrade legacy payloads'
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change document password'
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare with plaintext'
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a settings -d 'List or change settings'
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show status'
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact settings database'
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c notelock -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# encrypt
complete -c notelock -n "__fish_seen_subcommand_from encrypt" -l hint -r -d 'Password hint'
complete -c notelock -n "__fish_seen_subcommand_from encrypt" -l remove -d 'Remove plaintext'
complete -c notelock -n "__fish_seen_subcommand_from encrypt" -l force -d 'Replace existing .mdenc'
complete -c notelock -n "__fish_seen_subcommand_from encrypt" -F

# decrypt
complete -c notelock -n "__fish_seen_subcommand_from decrypt" -l remove -d 'Remove .mdenc'
complete -c notelock -n "__fish_seen_subcommand_from decrypt" -l conflict -x -a "abort local overwrite both merge"
complete -c notelock -n "__fish_seen_subcommand_from decrypt" -F

# lock
complete -c notelock -n "__fish_seen_subcommand_from lock" -l hint -r -d 'Password hint'
complete -c notelock -n "__fish_seen_subcommand_from lock" -l visible -d 'Show marker in reading view'
complete -c notelock -n "__fish_seen_subcommand_from lock" -l hidden -d 'Hide marker in reading view'
complete -c notelock -n "__fish_seen_subcommand_from lock" -F

complete -c notelock -n "__fish_seen_subcommand_from unlock show upgrade passwd diff" -F
complete -c notelock -n "__fish_seen_subcommand_from show" -l copy -d 'Copy to clipboard'
complete -c notelock -n "__fish_seen_subcommand_from upgrade" -l dry-run -d 'Only show the diff'
complete -c notelock -n "__fish_seen_subcommand_from passwd" -l hint -r -d 'New password hint'

# settings keys
complete -c notelock -n "__fish_seen_subcommand_from settings" -a "confirmPassword rememberPassword rememberPasswordTimeout rememberPasswordLevel singlePassword defaultHint showMarkerWhenReadingDefault"

# help completions
complete -c notelock -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c notelock -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
