package logger

// OutputCategory defines a category of terminal output that can be enabled
// independently of log severity.
//
//	0 (default) - summary, dry-run plan, validation errors
//	1 (-v)      - + per-artifact lines and the run id
//	2 (-vv)     - + timing, effective config, loader warnings in full
//	3 (-vvv)    - + parsed directives and locator scores
type OutputCategory int

const (
	OutputSummary OutputCategory = iota
	OutputPlan
	OutputErrors

	OutputArtifacts
	OutputRunInfo

	OutputTiming
	OutputConfig

	OutputDirectives
	OutputLocatorScores
)

var categoryLevels = map[OutputCategory]int{
	OutputSummary: VerbosityUser,
	OutputPlan:    VerbosityUser,
	OutputErrors:  VerbosityUser,

	OutputArtifacts: VerbosityInfo,
	OutputRunInfo:   VerbosityInfo,

	OutputTiming: VerbosityDebug,
	OutputConfig: VerbosityDebug,

	OutputDirectives:    VerbosityTrace,
	OutputLocatorScores: VerbosityTrace,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}
