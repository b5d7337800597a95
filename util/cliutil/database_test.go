package cliutil

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupDatabaseSchemes(t *testing.T) {
	assert := assert.New(t)

	db, err := SetupDatabase("sqlite://:memory:", 4)
	assert.NoError(err)
	assert.NotNil(db)

	_, err = SetupDatabase("mysql://localhost/warden", 4)
	assert.Error(err)
}

func TestConfigLogger(t *testing.T) {
	assert := assert.New(t)
	buf := new(bytes.Buffer)

	prev := slog.Default()
	defer slog.SetDefault(prev)

	logger := ConfigLogger("warn", "json", buf)
	logger.Info("hidden")
	assert.Empty(buf.String())
	logger.Warn("shown", "key", "val")
	assert.Contains(buf.String(), `"msg":"shown"`)
	assert.Equal(logger, slog.Default())

	buf.Reset()
	logger = ConfigLogger("bogus", "text", buf)
	logger.Info("plain")
	assert.Contains(buf.String(), "msg=plain")
}
