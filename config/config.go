// Package config loads shimgen settings from defaults, shimgen.toml files
// and SHIMGEN_* environment variables.
package config

// Locator names accepted by the locator setting
const (
	LocatorHeuristic = "heuristic"
	LocatorPosition  = "position"
)

// Config represents the shimgen configuration
type Config struct {
	// Regenerate forces rewrites: "all", or a comma/space separated list of class names.
	// Bound to SHIMGEN_REGENERATE_SCRIPTS.
	Regenerate  string            `mapstructure:"regenerate" toml:"regenerate"`
	Locator     string            `mapstructure:"locator" toml:"locator"`
	Host        HostConfig        `mapstructure:"host" toml:"host"`
	Annotations AnnotationsConfig `mapstructure:"annotations" toml:"annotations"`
	Output      OutputConfig      `mapstructure:"output" toml:"output"`
	Loader      LoaderConfig      `mapstructure:"loader" toml:"loader"`
	Locate      LocateConfig      `mapstructure:"locate" toml:"locate"`
	Watch       WatchConfig       `mapstructure:"watch" toml:"watch"`
}

// HostConfig names the Go binding of the host framework that generated code targets
type HostConfig struct {
	Import string `mapstructure:"import" toml:"import"` // import path, required
	Alias  string `mapstructure:"alias" toml:"alias"`   // import alias in generated files (default: godot)
}

// AnnotationsConfig locates the shim runtime package (Option, NodeReceiver)
type AnnotationsConfig struct {
	Package string   `mapstructure:"package" toml:"package"`
	Legacy  []string `mapstructure:"legacy" toml:"legacy"` // older import paths still recognized
}

// OutputConfig configures generated files
type OutputConfig struct {
	Package string `mapstructure:"package" toml:"package"` // package clause of generated files (default: shims)
}

// LoaderConfig configures module loading
type LoaderConfig struct {
	FallbackDirs []string `mapstructure:"fallback_dirs" toml:"fallback_dirs"` // tried in order when the primary load fails
	BuildTags    []string `mapstructure:"build_tags" toml:"build_tags"`
}

// LocateConfig tunes source location
type LocateConfig struct {
	Workers  int `mapstructure:"workers" toml:"workers"`     // parallel locate lookups (default: 8)
	MinScore int `mapstructure:"min_score" toml:"min_score"` // heuristic acceptance threshold (default: 3)
}

// WatchConfig configures --watch
type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms" toml:"debounce_ms"`
}
