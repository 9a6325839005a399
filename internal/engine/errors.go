package engine

import (
	"errors"
	"fmt"
	"os"
)

// Error kinds. Every error produced by the pipeline wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	ErrConfig  = errors.New("configuration error")
	ErrIO      = errors.New("i/o error")
	ErrWalk    = errors.New("walk error")
	ErrArchive = errors.New("archive error")
)

// Error records a failed operation on a path.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewError wraps err with the given kind, operation and path.
func NewError(kind error, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func ioError(op, path string, err error) *Error {
	return NewError(ErrIO, op, path, err)
}

func walkError(op, path string, err error) *Error {
	return NewError(ErrWalk, op, path, err)
}

// ConfigError reports a setup problem that aborts the run before scanning.
func ConfigError(format string, args ...any) error {
	return &Error{Kind: ErrConfig, Op: "setup", Err: fmt.Errorf(format, args...)}
}

// IsNotExist reports whether err means the file is gone.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

var lstat = os.Lstat
