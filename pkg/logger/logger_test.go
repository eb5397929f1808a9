package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLevels(t *testing.T) {
	require.NoError(t, Init(Config{Level: "warn"}))
	assert.Equal(t, logrus.WarnLevel, GetLogger().GetLevel())

	require.NoError(t, Init(Config{Level: "warn", Verbose: true}))
	assert.Equal(t, logrus.DebugLevel, GetLogger().GetLevel())

	require.NoError(t, Init(Config{Level: "loud"}))
	assert.Equal(t, logrus.InfoLevel, GetLogger().GetLevel())

	SetLevel("error")
	assert.Equal(t, logrus.ErrorLevel, GetLogger().GetLevel())
}

func TestJSONFields(t *testing.T) {
	require.NoError(t, Init(Config{Level: "info", Format: "json"}))
	var buf bytes.Buffer
	SetOutput(&buf)

	WithFields(logrus.Fields{"host": "10.0.0.1", "family": "cisco"}).Info("Trying device family")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Trying device family", entry["msg"])
	assert.Equal(t, "10.0.0.1", entry["host"])
	assert.Equal(t, "cisco", entry["family"])
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sysvers.log")
	require.NoError(t, Init(Config{Level: "info", Output: "file", FilePath: path, MaxSize: 1}))
	Infof("written to %s", "file")
	assert.FileExists(t, path)
}
