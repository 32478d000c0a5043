package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := NewZapLogger(path, true)

	l.Info("TEST", "hello", map[string]interface{}{"video_id": "abc12345678"})
	l.Error("TEST", "boom", map[string]interface{}{"error": "bad"})
	l.Debug("TEST", "debug is not written to the file", nil)
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, `"message":"hello"`)
	assert.Contains(t, content, `"module":"TEST"`)
	assert.Contains(t, content, `"video_id":"abc12345678"`)
	assert.Contains(t, content, `"error_ref":"bad"`)
	assert.NotContains(t, content, "debug is not written")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Warn("TEST", "nothing", nil)
		_ = l.Sync()
	})
}
