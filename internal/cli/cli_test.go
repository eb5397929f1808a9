package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/sysvers/internal/detect"
	"github.com/sshcollectorpro/sysvers/internal/model"
	"github.com/sshcollectorpro/sysvers/pkg/ssh"
)

type scriptedTransport struct {
	outputs map[string]map[string]string
	users   []string
}

func (s *scriptedTransport) Dial(_ context.Context, p model.ConnectionParams) (detect.Conn, error) {
	s.users = append(s.users, p.Username)
	if p.Host == "locked.example" {
		return nil, fmt.Errorf("%w: no supported methods remain", ssh.ErrAuthentication)
	}
	return scriptedConn{outputs: s.outputs[p.Host]}, nil
}

type scriptedConn struct{ outputs map[string]string }

func (c scriptedConn) Run(_ context.Context, command string) (string, error) {
	if out, ok := c.outputs[command]; ok {
		return out, nil
	}
	return "sh: command not found", &ssh.ExitError{Command: command, Status: 127}
}

func (scriptedConn) Close() error { return nil }

func run(t *testing.T, tr detect.Transport, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("inventory:\n  source: sqlite\n  sqlite:\n    path: %s\nreport:\n  local:\n    dir: %s\nlog:\n  level: error\n",
		filepath.ToSlash(filepath.Join(dir, "sysvers.db")), filepath.ToSlash(filepath.Join(dir, "reports")))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	var out bytes.Buffer
	root := newRootCmd(&app{out: &out, transport: tr})
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func newScripted() *scriptedTransport {
	return &scriptedTransport{outputs: map[string]map[string]string{
		"core.example": {"show version": "JUNOS Software Release [20.4R3]"},
		"srv.example":  {"cat /etc/os-release | grep PRETTY_NAME": `PRETTY_NAME="Ubuntu 22.04.4 LTS"`},
	}}
}

func TestCheckSuccess(t *testing.T) {
	tr := newScripted()
	out, err := run(t, tr, "--username", "netops", "check", "core.example", "--device-type", "juniper")
	require.NoError(t, err)
	assert.Equal(t, "Remote System Version (core.example): JUNOS Software Release [20.4R3]\n", out)
	assert.Equal(t, []string{"netops"}, tr.users)
}

func TestCheckFailurePrintsHint(t *testing.T) {
	out, err := run(t, newScripted(), "check", "srv.example", "-t", "cisco")
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "Failed to determine remote system version for srv.example: empty_or_invalid")
	assert.Contains(t, out, "Hint: If this is not a Cisco device, try --device-type juniper or --device-type auto")
}

func TestCheckAutoAndAuthFailure(t *testing.T) {
	out, err := run(t, newScripted(), "check", "srv.example")
	require.NoError(t, err)
	assert.Contains(t, out, "Ubuntu 22.04.4 LTS")

	out, err = run(t, newScripted(), "check", "locked.example")
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "authentication_failure")
}

func TestCheckRejectsUnknownDeviceType(t *testing.T) {
	_, err := run(t, newScripted(), "check", "srv.example", "--device-type", "vax")
	assert.ErrorIs(t, err, model.ErrUnknownFamily)
}

func TestCheckSingleCommand(t *testing.T) {
	tr := newScripted()
	out, err := run(t, tr, "check", "srv.example", "--command", "lsb_release -ds")
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "Failed to determine remote system version for srv.example: empty_or_invalid")
	assert.Len(t, tr.users, 1, "a single command never falls back to other candidates")

	out, err = run(t, newScripted(), "check", "srv.example", "-c", "cat /etc/os-release | grep PRETTY_NAME", "--shell")
	require.NoError(t, err)
	assert.Equal(t, "Remote System Version (srv.example): PRETTY_NAME=\"Ubuntu 22.04.4 LTS\"\n", out)

	_, err = run(t, newScripted(), "check", "srv.example", "-c", "ver", "-t", "windows")
	assert.Error(t, err)
}

func TestDevicesAndBatch(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("inventory:\n  sqlite:\n    path: %s\nreport:\n  local:\n    dir: %s\nlog:\n  level: error\n",
		filepath.ToSlash(filepath.Join(dir, "sysvers.db")), filepath.ToSlash(filepath.Join(dir, "reports")))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	exec := func(args ...string) (string, error) {
		var out bytes.Buffer
		root := newRootCmd(&app{out: &out, transport: newScripted()})
		root.SetArgs(append([]string{"--config", cfgPath}, args...))
		err := root.ExecuteContext(context.Background())
		return out.String(), err
	}

	_, err := exec("devices", "add", "core.example", "-t", "juniper", "--recorded-version", "19.1R1")
	require.NoError(t, err)
	_, err = exec("devices", "add", "srv.example")
	require.NoError(t, err)

	out, err := exec("devices", "--source", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 devices:")
	assert.Contains(t, out, "  - core.example (juniper) 19.1R1")
	assert.Contains(t, out, "  - srv.example (auto)")

	out, err = exec("batch", "--source", "sqlite", "--export")
	require.NoError(t, err)
	assert.Contains(t, out, "2 succeeded, 0 failed, 1 drifted")
	assert.Contains(t, out, "Report written to file://")

	out, err = exec("devices", "--source", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "  - core.example (juniper) 20.4R3")
	assert.Contains(t, out, "  - srv.example (linux) Ubuntu 22.04.4 LTS")

	out, err = exec("batch", "--source", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "2 succeeded, 0 failed, 0 drifted")

	_, err = exec("devices", "rm", "srv.example")
	require.NoError(t, err)
	_, err = exec("devices", "--source", "nowhere")
	assert.Error(t, err)
}
