package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/tasktag-api/internal/config"
)

func TestInit_WritesToRotatedFile(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
	})

	logFile := filepath.Join(t.TempDir(), "logs", "app.log")
	Init(&config.Config{LogLevel: "debug", LogFile: logFile, LogMaxSize: 1})

	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	logrus.WithField("component", "test").Info("hello")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
	})

	Init(&config.Config{LogLevel: "chatty"})
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
