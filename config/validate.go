package config

import (
	"go/token"

	"github.com/teranos/shimgen/errors"
)

// Validate checks that the configuration is usable for a generation run
func (c *Config) Validate() error {
	if c.Host.Import == "" {
		return errors.WithHint(errors.Configf("host.import is not set"),
			"set host.import in shimgen.toml or SHIMGEN_HOST_IMPORT to the import path of your Godot binding")
	}
	if !token.IsIdentifier(c.Host.Alias) {
		return errors.Configf("host.alias %q is not a valid Go identifier", c.Host.Alias)
	}
	if c.Annotations.Package == "" {
		return errors.Configf("annotations.package cannot be empty")
	}
	if !token.IsIdentifier(c.Output.Package) {
		return errors.Configf("output.package %q is not a valid Go identifier", c.Output.Package)
	}

	switch c.Locator {
	case LocatorHeuristic, LocatorPosition:
	default:
		return errors.WithHintf(errors.Configf("unknown locator %q", c.Locator),
			"use %q or %q", LocatorHeuristic, LocatorPosition)
	}

	// zero means zero: no workers cannot locate anything
	if c.Locate.Workers <= 0 {
		return errors.Configf("locate.workers must be > 0, got %d", c.Locate.Workers)
	}
	if c.Locate.MinScore <= 0 {
		return errors.Configf("locate.min_score must be > 0, got %d", c.Locate.MinScore)
	}
	if c.Watch.DebounceMS < 0 {
		return errors.Configf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}
	return nil
}
