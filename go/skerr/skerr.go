// Package skerr provides helpers for wrapping errors with their call site so
// that the origin of a failure survives being passed up the stack.
package skerr

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// wrappedError annotates an underlying error with the file and line of the
// wrap site.
type wrappedError struct {
	file string
	line int
	err  error
}

func (w *wrappedError) Error() string {
	return fmt.Sprintf("%s At %s:%d", w.err.Error(), w.file, w.line)
}

// Unwrap supports errors.Is and errors.As.
func (w *wrappedError) Unwrap() error {
	return w.err
}

// callerLocation returns the file name and line number of the caller's
// caller.
func callerLocation() (string, int) {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "???", 0
	}
	return filepath.Base(file), line
}

// Fmt works like fmt.Errorf but additionally records where the error was
// created.
func Fmt(format string, args ...interface{}) error {
	file, line := callerLocation()
	return &wrappedError{
		file: file,
		line: line,
		err:  fmt.Errorf(format, args...),
	}
}

// Wrap adds the caller's location to err. Returns nil if err is nil, so it is
// safe to wrap a return value unconditionally.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	file, line := callerLocation()
	return &wrappedError{
		file: file,
		line: line,
		err:  err,
	}
}

// Wrapf annotates err with a message and the caller's location. Returns nil
// if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	file, line := callerLocation()
	return &wrappedError{
		file: file,
		line: line,
		err:  fmt.Errorf(format+": %w", append(args, err)...),
	}
}
