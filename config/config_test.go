package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/shimgen/errors"
)

func validConfig() Config {
	return Config{
		Locator:     LocatorHeuristic,
		Host:        HostConfig{Import: "example.com/game/godot", Alias: "godot"},
		Annotations: AnnotationsConfig{Package: DefaultAnnotationPackage},
		Output:      OutputConfig{Package: "shims"},
		Locate:      LocateConfig{Workers: 2, MinScore: 3},
	}
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, LocatorHeuristic, cfg.Locator)
	assert.Equal(t, DefaultHostAlias, cfg.Host.Alias)
	assert.Equal(t, DefaultAnnotationPackage, cfg.Annotations.Package)
	assert.Equal(t, DefaultOutputPackage, cfg.Output.Package)
	assert.Equal(t, DefaultLocateWorkers, cfg.Locate.Workers)
	assert.Equal(t, DefaultMinScore, cfg.Locate.MinScore)
	assert.Equal(t, DefaultDebounceMS, cfg.Watch.DebounceMS)
	assert.Empty(t, cfg.Regenerate)
}

func TestLoad_RegenerateEnvVar(t *testing.T) {
	t.Setenv(RegenerateEnvVar, "Player, Enemy")

	v, err := NewViper(filepath.Join(t.TempDir(), "missing-is-skipped-only-when-searched.toml"))
	require.Error(t, err, "an explicit config file must exist")
	assert.True(t, errors.Is(err, errors.ErrConfig))

	path := filepath.Join(t.TempDir(), "shimgen.toml")
	require.NoError(t, os.WriteFile(path, []byte("[host]\nimport = \"example.com/godot\"\n"), 0o644))

	v, err = NewViper(path)
	require.NoError(t, err)
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "Player, Enemy", cfg.Regenerate)
	assert.Equal(t, "example.com/godot", cfg.Host.Import)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shimgen.toml")
	content := `
locator = "heuristic"

[host]
import = "example.com/from-file"

[output]
package = "generated"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("SHIMGEN_HOST_IMPORT", "example.com/from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "example.com/from-env", cfg.Host.Import)
	assert.Equal(t, "generated", cfg.Output.Package)
}

func TestFindProjectConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	assert.Empty(t, findProjectConfig(nested))

	want := filepath.Join(root, ProjectFileName)
	require.NoError(t, os.WriteFile(want, []byte(""), 0o644))
	assert.Equal(t, want, findProjectConfig(nested))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"position locator", func(c *Config) { c.Locator = LocatorPosition }, false},
		{"missing host import", func(c *Config) { c.Host.Import = "" }, true},
		{"bad alias", func(c *Config) { c.Host.Alias = "my-godot" }, true},
		{"bad output package", func(c *Config) { c.Output.Package = "1shims" }, true},
		{"unknown locator", func(c *Config) { c.Locator = "exact" }, true},
		{"zero workers", func(c *Config) { c.Locate.Workers = 0 }, true},
		{"zero min score", func(c *Config) { c.Locate.MinScore = 0 }, true},
		{"negative debounce", func(c *Config) { c.Watch.DebounceMS = -1 }, true},
		{"empty annotations package", func(c *Config) { c.Annotations.Package = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := validConfig()
	cfg.Regenerate = "all"

	out, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), "regenerate")

	path := filepath.Join(t.TempDir(), "shimgen.toml")
	require.NoError(t, os.WriteFile(path, out, 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Host, loaded.Host)
	assert.Equal(t, "all", loaded.Regenerate)

	assert.Error(t, cfg.WriteFile(path), "existing files are never overwritten")
}
