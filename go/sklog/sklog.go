// Package sklog defines the logging functions (e.g. Info, Errorf, etc.) used
// throughout figtest. Logs are written to stderr so that they never mix with
// the output of the program under test, which is captured from stdout.
package sklog

import (
	"os"

	logger "github.com/jcgregorio/logger"
)

var std = logger.NewFromOptions(&logger.Options{
	SyncWriter:   os.Stderr,
	DepthDelta:   1,
	IncludeDebug: true,
})

// Functions to log at various levels.
// Debug, Info, Warning, Error, and Fatal use fmt.Sprint to format the
// arguments. Functions ending in f use fmt.Sprintf.
func Debug(msg ...interface{}) {
	std.Debug(msg...)
}

func Debugf(format string, v ...interface{}) {
	std.Debugf(format, v...)
}

func Info(msg ...interface{}) {
	std.Info(msg...)
}

func Infof(format string, v ...interface{}) {
	std.Infof(format, v...)
}

func Warning(msg ...interface{}) {
	std.Warning(msg...)
}

func Warningf(format string, v ...interface{}) {
	std.Warningf(format, v...)
}

func Error(msg ...interface{}) {
	std.Error(msg...)
}

func Errorf(format string, v ...interface{}) {
	std.Errorf(format, v...)
}

// Fatal* exits the program after logging.
func Fatal(msg ...interface{}) {
	std.Fatal(msg...)
}

func Fatalf(format string, v ...interface{}) {
	std.Fatalf(format, v...)
}
