// Package logger is the process-wide trace log for sercha-kb.
//
// Debug, Info, Warn and Section print only with --verbose and are used to
// trace ingestion, retrieval and provider fallback. Error always prints.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose toggles verbose output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects log output. The default is os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// write prints one line when always is set or verbose output is on.
func write(always bool, line string) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprint(output, line)
	}
}

// Debug traces internal steps.
func Debug(format string, args ...any) {
	write(false, "[DEBUG] "+fmt.Sprintf(format, args...)+"\n")
}

// Section starts a named block of trace output.
func Section(name string) {
	write(false, "\n=== "+name+" ===\n")
}

// Info reports progress.
func Info(format string, args ...any) {
	write(false, "[INFO] "+fmt.Sprintf(format, args...)+"\n")
}

// Warn reports a recoverable problem.
func Warn(format string, args ...any) {
	write(false, "[WARN] "+fmt.Sprintf(format, args...)+"\n")
}

// Error reports a failure. It prints regardless of verbose mode.
func Error(format string, args ...any) {
	write(true, "[ERROR] "+fmt.Sprintf(format, args...)+"\n")
}
