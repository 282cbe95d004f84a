package config

import "github.com/spf13/viper"

// Default values
const (
	DefaultHostAlias         = "godot"
	DefaultAnnotationPackage = "github.com/teranos/shimgen/shim"
	DefaultOutputPackage     = "shims"
	DefaultLocateWorkers     = 8
	DefaultMinScore          = 3
	DefaultDebounceMS        = 300

	// RegenerateEnvVar is the environment override for forced regeneration
	RegenerateEnvVar = "SHIMGEN_REGENERATE_SCRIPTS"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("regenerate", "")
	v.SetDefault("locator", LocatorHeuristic)

	v.SetDefault("host.import", "")
	v.SetDefault("host.alias", DefaultHostAlias)

	v.SetDefault("annotations.package", DefaultAnnotationPackage)
	v.SetDefault("annotations.legacy", []string{})

	v.SetDefault("output.package", DefaultOutputPackage)

	v.SetDefault("loader.fallback_dirs", []string{})
	v.SetDefault("loader.build_tags", []string{})

	v.SetDefault("locate.workers", DefaultLocateWorkers)
	v.SetDefault("locate.min_score", DefaultMinScore)

	v.SetDefault("watch.debounce_ms", DefaultDebounceMS)
}

// BindEnvVars binds environment variables whose names do not follow the
// SHIMGEN_<KEY> pattern that AutomaticEnv derives.
func BindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("regenerate", RegenerateEnvVar, "SHIMGEN_REGENERATE")
}
