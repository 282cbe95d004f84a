package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/shimgen/errors"
)

// Marshal renders the effective configuration as TOML
func (c *Config) Marshal() ([]byte, error) {
	out, err := toml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return out, nil
}

// WriteFile saves the configuration as TOML, refusing to overwrite an existing file
func (c *Config) WriteFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.WithHint(errors.Configf("%s already exists", path), "remove it or edit it by hand")
	}
	out, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
