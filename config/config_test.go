package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoleynichenko/EXP-T-sub003/config"
	"github.com/aoleynichenko/EXP-T-sub003/ferr"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestValidateRejectsNonPositiveTileSize(t *testing.T) {
	cfg := config.Default()
	cfg.TileSize = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangeDiskUsageLevel(t *testing.T) {
	cfg := config.Default()
	cfg.DiskUsageLevel = 5
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownArithmetic(t *testing.T) {
	cfg := config.Default()
	cfg.Arithmetic = "quaternion"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownCompression(t *testing.T) {
	cfg := config.Default()
	cfg.Compression = "zstd"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownOpenMPAlgorithm(t *testing.T) {
	cfg := config.Default()
	cfg.OpenMPAlgorithm = "nested"
	assert.Error(t, cfg.Validate())
}

func TestLoadMissingFileIsSoftNotExist(t *testing.T) {
	_, err := config.Load("/nonexistent/path/does-not-exist.yaml")
	require.Error(t, err)
	assert.True(t, ferr.IsNotExist(err))
}
