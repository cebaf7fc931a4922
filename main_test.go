package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storemigrate/catalog-resolver/engine"
)

func writeConfigFile(t *testing.T, body string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resolver.yaml"), []byte(body), 0o644))
	t.Chdir(dir)
}

func TestLoadConfigKeepsPartialEngineSettings(t *testing.T) {
	writeConfigFile(t, `
engine:
  completeness_weights:
    has_price: 7
    has_sku: 2
    has_inventory: 1
  size_unit_priority: [count, volume]
`)

	cfg, err := loadConfig()
	require.NoError(t, err)

	// A file that only tunes some knobs must not be clobbered by defaults.
	assert.Equal(t, engine.CompletenessWeights{HasPrice: 7, HasSKU: 2, HasInventory: 1}, cfg.Engine.Weights)
	assert.Equal(t, []engine.UnitClass{engine.UnitCount, engine.UnitVolume}, cfg.Engine.UnitPriority)
	// Unset knobs stay zero here; the engine backfills them on construction.
	assert.Zero(t, cfg.Engine.FallbackThreshold)
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":50051", cfg.Addr)

	// Built-in alias tables apply when none are configured.
	assert.Equal(t, "Fox Farm", cfg.Aliases.Vendors["foxfarm"])
	assert.NotEmpty(t, cfg.Aliases.Categories)
}

func TestLoadConfigFileAliasesWin(t *testing.T) {
	writeConfigFile(t, `
aliases:
  vendors:
    gh: General Hydroponics
`)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"gh": "General Hydroponics"}, cfg.Aliases.Vendors)
	// Categories were omitted, so the built-in table still applies.
	assert.NotEmpty(t, cfg.Aliases.Categories)
}
