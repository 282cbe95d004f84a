package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/teranos/shimgen/errors"
)

// ProjectFileName is the per-project config file searched upward from the working directory
const ProjectFileName = "shimgen.toml"

// Load resolves configuration from defaults, config files and the environment.
// When configFile is empty the project file is found by walking up from the
// working directory.
func Load(configFile string) (*Config, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return nil, err
	}
	return LoadWithViper(v)
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to unmarshal config"), errors.ErrConfig)
	}
	return &config, nil
}

// NewViper builds a Viper instance with every configuration source merged.
// Precedence (lowest to highest): defaults < system < user < project < env vars.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix("SHIMGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)

	if configFile != "" {
		if err := mergeFile(v, configFile); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "failed to read config file %s", configFile), errors.ErrConfig)
		}
		return v, nil
	}

	for _, path := range configPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := mergeFile(v, path); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "failed to read config file %s", path), errors.ErrConfig)
		}
	}
	return v, nil
}

// configPaths lists candidate config files in precedence order
func configPaths() []string {
	paths := []string{"/etc/shimgen/" + ProjectFileName}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".shimgen", ProjectFileName))
	}
	if wd, err := os.Getwd(); err == nil {
		if project := findProjectConfig(wd); project != "" {
			paths = append(paths, project)
		}
	}
	return paths
}

// mergeFile merges one TOML file into v without overriding environment bindings
func mergeFile(v *viper.Viper, path string) error {
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("toml")
	if err := file.ReadInConfig(); err != nil {
		return err
	}
	return v.MergeConfigMap(file.AllSettings())
}

// findProjectConfig searches for shimgen.toml by walking up the directory tree.
// Returns the path to the first file found, or empty string if none found.
func findProjectConfig(dir string) string {
	for {
		candidate := filepath.Join(dir, ProjectFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
