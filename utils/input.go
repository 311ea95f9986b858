package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptSecret asks for a secret without echo when stdin is a terminal, and
// reads a single line otherwise.
func PromptSecret(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(os.Stdin)
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", errors.New("empty value")
	}
	return s, nil
}

// PromptSecretTwice asks twice and retries until both entries match and are
// at least minLen characters long.
func PromptSecretTwice(label string, minLen int) (string, error) {
	for {
		first, err := PromptSecret(label)
		if err != nil {
			return "", err
		}
		if len(first) < minLen {
			fmt.Fprintf(os.Stderr, "%s must be at least %d characters.\n", label, minLen)
			continue
		}
		second, err := PromptSecret("Repeat " + strings.ToLower(label))
		if err != nil {
			return "", err
		}
		if first != second {
			fmt.Fprintln(os.Stderr, "Values do not match. Try again.")
			continue
		}
		return first, nil
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	s := strings.TrimSpace(line)
	if s == "" {
		return "", errors.New("empty value")
	}
	return s, nil
}
