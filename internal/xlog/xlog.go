// Package xlog is a small leveled logger in the style of cc-backend's pkg/log:
// package-level Debug/Info/Warn/Error funcs over per-level *log.Logger instances.
// SetLevel and SetOutput choose the level and destination; cmd/omlc-collect calls
// SetLevel from its -log-level flag. The client package does not call either, so
// client.Config's LogLevel and LogFile settings do not affect this logger.
package xlog

import (
	"fmt"
	"io"
	"log"
	"os"
)

var (
	debugWriter io.Writer = os.Stderr
	infoWriter  io.Writer = os.Stderr
	warnWriter  io.Writer = os.Stderr
	errWriter   io.Writer = os.Stderr
)

var (
	debugLog = log.New(debugWriter, "[DEBUG]   ", log.LstdFlags)
	infoLog  = log.New(infoWriter, "[INFO]    ", log.LstdFlags)
	warnLog  = log.New(warnWriter, "[WARNING] ", log.LstdFlags)
	errLog   = log.New(errWriter, "[ERROR]   ", log.LstdFlags|log.Lshortfile)
)

// SetLevel disables writers below lvl (spec.md §6 "log-level"). One of
// "debug", "info", "warn", "error".
func SetLevel(lvl string) {
	debugWriter = os.Stderr
	switch lvl {
	case "error":
		warnWriter = io.Discard
		fallthrough
	case "warn":
		infoWriter = io.Discard
		fallthrough
	case "info":
		debugWriter = io.Discard
	case "debug":
		// nothing to discard
	default:
		fmt.Fprintf(os.Stderr, "xlog: unknown log-level %q, using debug\n", lvl)
	}

	debugLog.SetOutput(debugWriter)
	infoLog.SetOutput(infoWriter)
	warnLog.SetOutput(warnWriter)
	errLog.SetOutput(errWriter)
}

// SetOutput redirects every level's writer to w (spec.md §6 "log-file").
func SetOutput(w io.Writer) {
	debugWriter, infoWriter, warnWriter, errWriter = w, w, w, w
	debugLog.SetOutput(w)
	infoLog.SetOutput(w)
	warnLog.SetOutput(w)
	errLog.SetOutput(w)
}

func Debug(v ...any) { debugLog.Output(2, fmt.Sprint(v...)) }
func Info(v ...any)  { infoLog.Output(2, fmt.Sprint(v...)) }
func Warn(v ...any)  { warnLog.Output(2, fmt.Sprint(v...)) }
func Error(v ...any) { errLog.Output(2, fmt.Sprint(v...)) }

func Debugf(format string, v ...any) { debugLog.Output(2, fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { infoLog.Output(2, fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { warnLog.Output(2, fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { errLog.Output(2, fmt.Sprintf(format, v...)) }
