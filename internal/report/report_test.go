package report

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/sysvers/internal/config"
	"github.com/sshcollectorpro/sysvers/internal/model"
)

func sampleResults() map[string]model.Result {
	return map[string]model.Result{
		"sw-2": {Host: "sw-2", Family: model.FamilyAuto, Class: model.AuthenticationFailure, Detail: "ssh: authentication failed"},
		"sw-1": {Host: "sw-1", Family: model.FamilyCisco, Class: model.Success, Command: "show version", Output: "Cisco IOS XE Software, Version 17.03.04"},
		"srv":  {Host: "srv", Family: model.FamilyLinux, Class: model.Success, Output: `PRETTY_NAME="Debian GNU/Linux 12"`},
	}
}

func TestBuild(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	doc := Build("run-42", sampleResults(), map[string]string{"sw-1": "16.9", "srv": "Debian GNU/Linux 12"}, at)

	require.Len(t, doc.Hosts, 3)
	assert.Equal(t, []string{"srv", "sw-1", "sw-2"}, []string{doc.Hosts[0].Host, doc.Hosts[1].Host, doc.Hosts[2].Host})
	assert.False(t, doc.Hosts[0].Drift)
	assert.True(t, doc.Hosts[1].Drift)
	assert.Empty(t, doc.Hosts[2].Version)

	assert.Equal(t, Summary{
		Total:     3,
		Succeeded: 2,
		Failed:    1,
		Drifted:   1,
		ByClass:   map[string]int{"success": 2, "authentication_failure": 1},
	}, doc.Summary)
	assert.Equal(t, "20260314/run-42.json", doc.ObjectName())

	data, err := doc.JSON()
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-42", decoded["run_id"])
}

func TestLocalWriter(t *testing.T) {
	dir := t.TempDir()
	w := &LocalWriter{Dir: dir, Prefix: "sysvers"}

	loc, err := w.Write(context.Background(), "20260314/run-1.json", []byte(`{"ok":true}`))
	require.NoError(t, err)

	full := filepath.Join(dir, "sysvers", "20260314", "run-1.json")
	assert.Equal(t, "file://"+full, loc)
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))

	loc, err = w.Write(context.Background(), "../../escape.json", []byte("{}"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loc, "file://"+filepath.Join(dir, "sysvers")))

	_, err = w.Write(context.Background(), " ", nil)
	assert.Error(t, err)
}

func TestNewWriterWithoutMinioUsesLocal(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(config.ReportConfig{Backend: "minio", Local: config.LocalReportConfig{Dir: dir}})

	loc, err := w.Write(context.Background(), "a.json", []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.Join(dir, "a.json"), loc)
}

func TestMinioFailureFallsBackToLocal(t *testing.T) {
	// 占用后立即释放一个端口，保证连接被拒绝
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	dir := t.TempDir()
	w := NewWriter(config.ReportConfig{
		Backend: "minio",
		Local:   config.LocalReportConfig{Dir: dir},
		Minio:   config.MinioConfig{Host: "127.0.0.1", Port: port, Bucket: "reports"},
	})
	dw, ok := w.(*DelegatingWriter)
	require.True(t, ok)
	require.NotNil(t, dw.minio)

	loc, err := w.Write(context.Background(), "b.json", []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.Join(dir, "b.json"), loc)
}

func TestNewMinioWriterValidation(t *testing.T) {
	_, err := NewMinioWriter(config.MinioConfig{Port: 9000, Bucket: "b"}, "")
	assert.Error(t, err)
	_, err = NewMinioWriter(config.MinioConfig{Host: "minio", Port: 9000}, "")
	assert.Error(t, err)
}
