package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "caseintake.db", cfg.Database)
	assert.Empty(t, cfg.Rules)
	assert.Empty(t, cfg.ReferenceData)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 720*time.Hour, cfg.MaterialLifetime)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caseintake.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database: /var/lib/caseintake/cases.db
rules: rules.cue
reference_data: refdata.yaml
log_level: debug
log_format: json
material_lifetime: 48h
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/caseintake/cases.db", cfg.Database)
	assert.Equal(t, "rules.cue", cfg.Rules)
	assert.Equal(t, "refdata.yaml", cfg.ReferenceData)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 48*time.Hour, cfg.MaterialLifetime)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caseintake.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: from-file.db\n"), 0o644))
	t.Setenv("CASEINTAKE_DATABASE", "from-env.db")
	t.Setenv("CASEINTAKE_MATERIAL_LIFETIME", "2h")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database)
	assert.Equal(t, 2*time.Hour, cfg.MaterialLifetime)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestValidate(t *testing.T) {
	valid := Config{Database: "x.db", LogFormat: "json", MaterialLifetime: time.Hour}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.LogFormat = "xml"
	assert.ErrorContains(t, bad.Validate(), "log_format")

	bad = valid
	bad.Database = ""
	assert.ErrorContains(t, bad.Validate(), "database")

	bad = valid
	bad.MaterialLifetime = 0
	assert.ErrorContains(t, bad.Validate(), "material_lifetime")
}
