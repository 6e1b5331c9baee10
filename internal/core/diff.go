package core

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	BinarySampleSize   = 8192 // Bytes to sample for text/binary detection
	BinaryThresholdPct = 10   // Max % non-printable chars for text files
)

// ConflictStrategy decides what happens when a decrypted document would
// replace a different local file
type ConflictStrategy int

const (
	StrategyAbort     ConflictStrategy = iota // fail with ErrAlreadyExists
	StrategyKeepLocal                         // leave the local file alone
	StrategyOverwrite                         // replace the local file
	StrategyKeepBoth                          // write next to it as <name>.decrypted.md
	StrategyMerge                             // open $EDITOR on a conflict-marked merge
)

// ParseConflictStrategy maps a CLI flag value to a strategy
func ParseConflictStrategy(s string) (ConflictStrategy, error) {
	switch strings.ToLower(s) {
	case "", "abort":
		return StrategyAbort, nil
	case "local", "keep-local":
		return StrategyKeepLocal, nil
	case "overwrite", "theirs":
		return StrategyOverwrite, nil
	case "both", "keep-both":
		return StrategyKeepBoth, nil
	case "merge", "edit":
		return StrategyMerge, nil
	}
	return StrategyAbort, fmt.Errorf("unknown conflict strategy %q", s)
}

// DetectFileType determines if data is likely text.
//
// Detection heuristic (in order):
//  1. Null bytes present → binary
//  2. Invalid UTF-8 → binary
//  3. >10% non-printable control chars → binary
func DetectFileType(data []byte) bool {
	if len(data) == 0 {
		return true
	}

	if bytes.IndexByte(data, 0) != -1 {
		return false
	}

	sample := data
	if len(sample) > BinarySampleSize {
		sample = sample[:BinarySampleSize]
		// do not cut a multi-byte rune in half
		for i := 0; i < utf8.UTFMax && !utf8.Valid(sample); i++ {
			sample = sample[:len(sample)-1]
		}
	}

	if !utf8.Valid(sample) {
		return false
	}

	nonPrintable := 0
	for _, b := range sample {
		// tab, newline and carriage return are fine
		if b < 32 && b != 9 && b != 10 && b != 13 {
			nonPrintable++
		}
		if b == 127 {
			nonPrintable++
		}
	}

	threshold := len(sample) * BinaryThresholdPct / 100
	return nonPrintable <= threshold
}

// CompareFiles reports whether two contents are identical
func CompareFiles(a, b []byte) bool {
	ha := sha256.Sum256(a)
	hb := sha256.Sum256(b)
	return ha == hb
}

// GenerateUnifiedDiff renders the change from oldData to newData.
// Returns an empty string when both are identical.
func GenerateUnifiedDiff(path string, oldData, newData []byte) (string, error) {
	if CompareFiles(oldData, newData) {
		return "", nil
	}

	if !DetectFileType(oldData) || !DetectFileType(newData) {
		return fmt.Sprintf("Binary file %s has changed\n", path), nil
	}

	dmp := diffmatchpatch.New()

	oldStr, newStr := string(oldData), string(newData)
	a, b, lineArray := dmp.DiffLinesToChars(oldStr, newStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(oldStr, diffs)
	if len(patches) == 0 {
		return "", nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "--- a/%s\n", path)
	fmt.Fprintf(&result, "+++ b/%s\n", path)
	result.WriteString(dmp.PatchToText(patches))

	return result.String(), nil
}

// createLineDiff wraps only the differing line runs in git-style conflict
// markers; common lines appear once.
func createLineDiff(localData, decrypted []byte) []byte {
	dmp := diffmatchpatch.New()

	a, b, lineArray := dmp.DiffLinesToChars(string(localData), string(decrypted))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	return buildConflictFromDiffs(diffs)
}

func buildConflictFromDiffs(diffs []diffmatchpatch.Diff) []byte {
	var buf bytes.Buffer

	writeSide := func(i int, typ diffmatchpatch.Operation) int {
		for i < len(diffs) && diffs[i].Type == typ {
			text := diffs[i].Text
			buf.WriteString(text)
			if len(text) > 0 && text[len(text)-1] != '\n' {
				buf.WriteByte('\n')
			}
			i++
		}
		return i
	}

	i := 0
	for i < len(diffs) {
		if diffs[i].Type == diffmatchpatch.DiffEqual {
			buf.WriteString(diffs[i].Text)
			i++
			continue
		}

		buf.WriteString("<<<<<<< local\n")
		i = writeSide(i, diffmatchpatch.DiffDelete)
		buf.WriteString("=======\n")
		i = writeSide(i, diffmatchpatch.DiffInsert)
		buf.WriteString(">>>>>>> decrypted\n")
	}

	return buf.Bytes()
}

// hasConflictMarkers checks if content still contains unresolved conflict markers
func hasConflictMarkers(data []byte) bool {
	return bytes.Contains(data, []byte("<<<<<<<")) ||
		bytes.Contains(data, []byte("=======")) ||
		bytes.Contains(data, []byte(">>>>>>>"))
}

// getEditor returns the editor to use, checking environment variables with fallback
func getEditor() string {
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	return "vi"
}

// editMerge writes a conflict-marked merge to a private temp file, lets the
// user resolve it in their editor and returns the result.
func editMerge(path string, localData, decrypted []byte) ([]byte, error) {
	tmp, err := os.CreateTemp("", "notelock-merge-*"+filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if _, err := tmp.Write(createLineDiff(localData, decrypted)); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write conflict content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	editor := getEditor()
	if _, err := exec.LookPath(editor); err != nil {
		return nil, fmt.Errorf("editor '%s' not found: %w\nPlease set VISUAL or EDITOR environment variable", editor, err)
	}

	cmd := exec.Command(editor, tmp.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("editor exited with code %d", exitErr.ExitCode())
		}
		return nil, err
	}

	merged, err := os.ReadFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read edited file: %w", err)
	}
	if hasConflictMarkers(merged) {
		return nil, fmt.Errorf("conflict markers still present in %s, merge aborted", path)
	}
	return merged, nil
}
