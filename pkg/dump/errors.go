package dump

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrInvalidCount indicates a #DECLARE or #INVOCATIONS value that is not an integer.
	ErrInvalidCount = errors.New("invalid edit count")
	// ErrDumpTooLarge indicates a dump source exceeds the configured size limit.
	ErrDumpTooLarge = errors.New("dump exceeds size limit")
	// ErrNoDumps indicates no dump source matched the requested inputs.
	ErrNoDumps = errors.New("no dump files found")
	// ErrInvalidS3Config indicates missing S3 source settings.
	ErrInvalidS3Config = errors.New("invalid s3 source config")
)

// ParseError attributes a fatal input-format violation to a dump file and line.
type ParseError struct {
	File   string
	Line   int
	Marker string
	Err    error
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %v", e.File, e.Line, e.Marker, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}
