package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOSRelease(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"ubuntu", "NAME=\"Ubuntu\"\nVERSION=\"22.04.4 LTS (Jammy Jellyfish)\"\nPRETTY_NAME=\"Ubuntu 22.04.4 LTS\"\n", "Ubuntu 22.04.4 LTS"},
		{"single quotes", "PRETTY_NAME='Alpine Linux v3.19'\n", "Alpine Linux v3.19"},
		{"unquoted", "# comment\nPRETTY_NAME=Arch\n", "Arch"},
		{"no pretty name", "NAME=\"Fedora Linux\"\nVERSION=\"40\"\n", "Fedora Linux 40"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseOSRelease(strings.NewReader(tc.content))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseOSRelease(strings.NewReader("ID=unknown\n"))
	assert.Error(t, err)
}

func TestVersionFor(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(path, []byte("PRETTY_NAME=\"Debian GNU/Linux 12 (bookworm)\"\n"), 0644))

	got, err := versionFor(ctx, "linux", path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Debian GNU/Linux 12 (bookworm)", got)

	var called []string
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		called = append(called, name+" "+strings.Join(args, " "))
		switch name {
		case "sw_vers":
			return []byte("14.4.1\n"), nil
		case "cmd":
			return []byte("\r\nMicrosoft Windows [Version 10.0.22631.3447]\r\n"), nil
		}
		return nil, errors.New("unexpected command")
	}

	got, err = versionFor(ctx, "darwin", "", run)
	require.NoError(t, err)
	assert.Equal(t, "14.4.1", got)

	got, err = versionFor(ctx, "windows", "", run)
	require.NoError(t, err)
	assert.Equal(t, "Microsoft Windows [Version 10.0.22631.3447]", got)
	assert.Equal(t, []string{"sw_vers -productVersion", "cmd /c ver"}, called)

	_, err = versionFor(ctx, "plan9", "", run)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = versionFor(ctx, "linux", filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}
