// Package errors provides error handling for shimgen.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints attached to fatal errors
//
// Usage:
//
//	if err := os.MkdirAll(dir, 0o755); err != nil {
//	    return errors.WithHint(errors.Wrapf(err, "create output dir %s", dir),
//	        "check permissions on the parent directory")
//	}
//
//	if errors.Is(err, errors.ErrValidation) {
//	    // report and fail the run
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
	Join         = crdb.Join
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors for the run taxonomy. The CLI maps them to exit codes,
// so wrap them with Mark or Wrap instead of replacing them.
var (
	// ErrUsage indicates missing or malformed command-line arguments
	ErrUsage = New("usage error")

	// ErrConfig indicates a fatal configuration problem (bad config, uncreatable output root)
	ErrConfig = New("configuration error")

	// ErrModuleLoad indicates the target module or a hard dependency could not be loaded
	ErrModuleLoad = New("module load failed")

	// ErrValidation indicates one or more script types violate a wiring contract
	ErrValidation = New("script validation failed")

	// ErrArtifactFailures indicates the pass completed but some files could not be written, moved or deleted
	ErrArtifactFailures = New("artifact operations failed")
)

// ExitCode maps an error returned by a run to a process exit code.
// Usage errors exit 2, every other failure exits 1.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case Is(err, ErrUsage):
		return 2
	default:
		return 1
	}
}

// Configf creates a configuration error with a formatted message.
func Configf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrConfig)
}

// Usagef creates a usage error with a formatted message.
func Usagef(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrUsage)
}
