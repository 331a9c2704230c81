package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	out := &bytes.Buffer{}
	r := bufio.NewReader(strings.NewReader("  dev@questpath.io  \n"))

	got, err := getSimpleText(r, "Enter email", out)

	require.NoError(t, err)
	require.Equal(t, "dev@questpath.io", got)
	require.Contains(t, out.String(), "Enter email")
}

func TestGetSimpleText_PartialLineAtEOF(t *testing.T) {
	out := &bytes.Buffer{}
	r := bufio.NewReader(strings.NewReader("no-newline"))

	got, err := getSimpleText(r, "Enter email", out)

	require.NoError(t, err)
	require.Equal(t, "no-newline", got)
}

func TestGetSimpleText_EmptyInputReturnsError(t *testing.T) {
	out := &bytes.Buffer{}
	r := bufio.NewReader(strings.NewReader(""))

	_, err := getSimpleText(r, "Enter email", out)

	require.Error(t, err)
}

func TestGetPassword(t *testing.T) {
	stubPassword(t, "hunter2")
	out := &bytes.Buffer{}

	got, err := getPassword(out)

	require.NoError(t, err)
	require.Equal(t, "hunter2", got)
	require.Contains(t, out.String(), "Enter password: ")
}

func TestGetPassword_ReadError(t *testing.T) {
	orig := readPassword
	readPassword = func(fd int) ([]byte, error) { return nil, errors.New("not a terminal") }
	t.Cleanup(func() { readPassword = orig })

	_, err := getPassword(&bytes.Buffer{})

	require.Error(t, err)
}
