package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/reconcile"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// GetSimpleText prints prompt to w and reads one trimmed line. A final line
// without a newline is accepted.
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword reads a password from the terminal without echo. When stdin
// is not a terminal the password is read as a plain line from reader.
func GetPassword(reader *bufio.Reader, w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return GetSimpleText(reader, "Password", w)
	}
	if _, err := fmt.Fprint(w, "Password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// GetNumber reads a number; decimal commas are accepted. An empty answer
// yields def.
func GetNumber(reader *bufio.Reader, prompt string, def float64, w io.Writer) (float64, error) {
	for {
		s, err := GetSimpleText(reader, fmt.Sprintf("%s [%g]", prompt, def), w)
		if err != nil {
			return 0, err
		}
		if s == "" {
			return def, nil
		}
		if f, ok := reconcile.ParseNumber(s); ok {
			return f, nil
		}
		fmt.Fprintf(w, "not a number: %q\n", s)
	}
}

// GetTime reads a date such as "2025-03-10 18:30" or an RFC 3339 instant.
// An empty answer yields def.
func GetTime(reader *bufio.Reader, prompt string, def time.Time, w io.Writer) (time.Time, error) {
	label := prompt
	if !def.IsZero() {
		label = fmt.Sprintf("%s [%s]", prompt, def.Format("2006-01-02 15:04"))
	}
	for {
		s, err := GetSimpleText(reader, label, w)
		if err != nil {
			return time.Time{}, err
		}
		if s == "" {
			return def, nil
		}
		if t, ok := reconcile.ParseTime(s); ok {
			return t, nil
		}
		if t, err := time.Parse("2006-01-02 15:04", s); err == nil {
			return t, nil
		}
		fmt.Fprintf(w, "not a date: %q\n", s)
	}
}
