package ginst

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// maxPromptRounds bounds how often an out-of-range selection may
// re-prompt before giving up.
const maxPromptRounds = 100

// SelectVersion lists the mirror's releases and asks the operator to
// pick one. Requires an attached terminal.
func SelectVersion(cfg *Config) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("interactive version selection requires a terminal")
	}

	stagef("Fetching available gcc versions from %s", cfg.FTPHost)
	versions, err := newFTPLister(cfg).ListVersions()
	if err != nil {
		return "", err
	}
	return promptForVersion(os.Stdin, os.Stdout, versions)
}

// promptForVersion renders the numbered menu and reads a selection.
// "q" aborts with errQuit, a valid 1-based index returns the version
// at that position in discovery order, and an out-of-range number
// re-prompts. Non-numeric input and a closed stdin are fatal.
func promptForVersion(in io.Reader, out io.Writer, versions []string) (string, error) {
	if len(versions) == 0 {
		return "", errors.New("no gcc versions found in the remote listing")
	}

	var menu strings.Builder
	menu.WriteString("Select a gcc version to compile and install...\n")
	for idx, item := range versions {
		fmt.Fprintf(&menu, "%-3d) %-10s", idx+1, item)
		if (idx+1)%5 == 0 {
			menu.WriteString("\n")
		}
	}
	menu.WriteString("\nSelection (q to quit): ")

	reader := bufio.NewReader(in)
	for round := 0; round < maxPromptRounds; round++ {
		fmt.Fprint(out, menu.String())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading selection: %w", err)
		}
		choice := strings.TrimSpace(line)
		if choice == "q" {
			return "", errQuit
		}
		n, convErr := strconv.Atoi(choice)
		if convErr != nil {
			return "", fmt.Errorf("invalid selection %q: %w", choice, convErr)
		}
		if n >= 1 && n <= len(versions) {
			return versions[n-1], nil
		}
		// Out of range: repeat the prompt.
	}
	return "", errors.New("too many invalid selections")
}
