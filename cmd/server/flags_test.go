package main

import (
	"flag"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/healthtrack/internal/config"
	"github.com/inferloop/healthtrack/pkg/constants"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestFlagsApplyOnlyExplicit(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	originalHost := cfg.Server.Host

	flags := parseFlags(newFlagSet(), []string{"-port", "9999", "-storage", "file", "-log-level", "debug"})
	flags.Apply(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Storage.Type)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, originalHost, cfg.Server.Host)
	assert.NoError(t, cfg.Validate())
}

func TestFlagsConfigAndVersion(t *testing.T) {
	flags := parseFlags(newFlagSet(), []string{"-config", "/etc/healthtrack/config.yaml", "-version"})

	assert.Equal(t, "/etc/healthtrack/config.yaml", flags.ConfigFile)
	assert.True(t, flags.Version)
}

func TestSetupLogger(t *testing.T) {
	logger := setupLogger("warn", "json")
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger = setupLogger("nonsense", "text")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestBuildInfoVersion(t *testing.T) {
	linked := Version
	defer func() { Version = linked }()

	Version = ""
	assert.Equal(t, constants.AppVersion, GetBuildInfo().Version)

	Version = "1.2.0"
	assert.Equal(t, "1.2.0", GetBuildInfo().Version)
}
