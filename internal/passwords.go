package internal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// ErrNoPassword is returned when no password was supplied and stdin is not a
// terminal to prompt on.
var ErrNoPassword = errors.New("no password supplied")

// PasswordInput lists the places a password may come from, in priority order.
type PasswordInput struct {
	Value  string
	File   string
	Prompt string
}

// Overridable for tests.
var (
	stdinIsTerminal = func() bool {
		fd := os.Stdin.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	readPassword = func() ([]byte, error) {
		return term.ReadPassword(int(os.Stdin.Fd()))
	}
	promptOut io.Writer = os.Stderr
)

// LoadPasswordFromFile returns the first non-blank line of a file, trimmed.
func LoadPasswordFromFile(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
			return pwd, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%s contains no password", filename)
}

// ResolvePassword returns the inline value, else the file's password, else a
// password read without echo from the terminal.
func ResolvePassword(in PasswordInput) (string, error) {
	if in.Value != "" {
		return in.Value, nil
	}
	if in.File != "" {
		pwd, err := LoadPasswordFromFile(in.File)
		if err != nil {
			return "", fmt.Errorf("loading password from file: %w", err)
		}
		return pwd, nil
	}
	if !stdinIsTerminal() {
		return "", ErrNoPassword
	}

	prompt := in.Prompt
	if prompt == "" {
		prompt = "Password"
	}
	fmt.Fprintf(promptOut, "%s: ", prompt)
	pwd, err := readPassword()
	fmt.Fprintln(promptOut)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pwd), nil
}
