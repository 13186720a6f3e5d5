package logger

// OutputCategory defines a category of CLI output that can be enabled/disabled.
// Unlike log levels, categories control what a command prints to stdout.
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults  OutputCategory = iota // Command results, reports
	OutputFailures                       // Per-item failures of a batch

	// Level 1 (-v)
	OutputProgress // Per-run progress lines
	OutputConfig   // Effective config summary

	// Level 2 (-vv)
	OutputResolverHits // Normalized resolver keys
)

var categoryLevels = map[OutputCategory]int{
	OutputResults:      VerbosityUser,
	OutputFailures:     VerbosityUser,
	OutputProgress:     VerbosityInfo,
	OutputConfig:       VerbosityInfo,
	OutputResolverHits: VerbosityDebug,
}

// ShouldOutput reports whether category is enabled at the given verbosity.
func ShouldOutput(verbosity int, category OutputCategory) bool {
	level, ok := categoryLevels[category]
	if !ok {
		return false
	}
	return verbosity >= level
}
