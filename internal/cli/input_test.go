package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("  hello world \n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	assert.Error(t, err)
}

func TestGetNumber(t *testing.T) {
	var out bytes.Buffer

	got, err := GetNumber(rdr("12,5\n"), "Km", 0, &out)
	require.NoError(t, err)
	assert.Equal(t, 12.5, got)

	got, err = GetNumber(rdr("\n"), "Km", 80, &out)
	require.NoError(t, err)
	assert.Equal(t, 80.0, got)

	out.Reset()
	got, err = GetNumber(rdr("many\n3\n"), "Km", 0, &out)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)
	assert.Contains(t, out.String(), `not a number: "many"`)
}

func TestGetTime(t *testing.T) {
	var out bytes.Buffer
	def := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	got, err := GetTime(rdr("2025-03-11 08:30\n"), "Start", def, &out)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 11, 8, 30, 0, 0, time.UTC), got)

	got, err = GetTime(rdr("\n"), "Start", def, &out)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	got, err = GetTime(rdr("tomorrow\n2025-03-12\n"), "Start", def, &out)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), got)
	assert.Contains(t, out.String(), `not a date: "tomorrow"`)
}

func stubTerminal(t *testing.T, tty bool, read func(int) ([]byte, error)) {
	t.Helper()
	origTTY, origRead := isTerminal, readPassword
	isTerminal = func(int) bool { return tty }
	if read != nil {
		readPassword = read
	}
	t.Cleanup(func() { isTerminal, readPassword = origTTY, origRead })
}

func TestGetPassword_Terminal(t *testing.T) {
	stubTerminal(t, true, func(int) ([]byte, error) { return []byte("s3cret"), nil })

	var out bytes.Buffer
	got, err := GetPassword(rdr(""), &out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
	assert.Equal(t, "Password: \n", out.String())
}

func TestGetPassword_Error(t *testing.T) {
	stubTerminal(t, true, func(int) ([]byte, error) { return nil, errors.New("boom") })

	var out bytes.Buffer
	_, err := GetPassword(rdr(""), &out)
	assert.Error(t, err)
}

func TestGetPassword_NotATerminal(t *testing.T) {
	stubTerminal(t, false, nil)

	var out bytes.Buffer
	got, err := GetPassword(rdr("piped\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "piped", got)
}
