package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptLine asks for a value, returning def when the answer is empty.
func promptLine(r *bufio.Reader, w io.Writer, label, def string) string {
	if def != "" {
		fmt.Fprintf(w, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(w, "%s: ", label)
	}
	input, _ := r.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}

// promptRequired repeats the question until a value is given (or input ends).
func promptRequired(r *bufio.Reader, w io.Writer, label string) string {
	for {
		fmt.Fprintf(w, "%s (required): ", label)
		input, err := r.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" || err != nil {
			return input
		}
		fmt.Fprintln(w, "  Error: a value is required")
	}
}

// promptSecret reads a secret from stdin without echo.
func promptSecret(label string) (string, error) {
	return readSecret(bufio.NewReader(os.Stdin), os.Stdin, os.Stderr, label)
}

// readSecret disables echo when in is a terminal and falls back to a plain
// line read otherwise (pipes, tests).
func readSecret(r *bufio.Reader, in io.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	input, err := r.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
