package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNopByDefault(t *testing.T) {
	log, err := New(Options{})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.ErrorLevel))
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "donutx.log")
	log, err := New(Options{File: path, Level: "info"})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("purchase mined", zap.String("tx", "0xabc"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"purchase mined"`)
	assert.Contains(t, string(data), `"tx":"0xabc"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestVerboseConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Verbose: true, Stderr: &buf})
	require.NoError(t, err)

	log.Debug("dialing", zap.String("rpc", "http://127.0.0.1:8545"))
	assert.Contains(t, buf.String(), "dialing")
	assert.Contains(t, buf.String(), "http://127.0.0.1:8545")
}

func TestBadLevel(t *testing.T) {
	_, err := New(Options{File: filepath.Join(t.TempDir(), "x.log"), Level: "loud"})
	assert.Error(t, err)
}
