// -----------------------------------------------------------------------
// Safe Goroutine - Panic-protected goroutine wrappers
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/ternarybob/arbor"
)

// RecoverPanic logs a recovered panic with its stack. Use as
// `defer RecoverPanic(logger, name)`; a nil logger falls back to stderr.
func RecoverPanic(logger arbor.ILogger, name string) {
	r := recover()
	if r == nil {
		return
	}

	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	if logger != nil {
		logger.Error().
			Str("goroutine", name).
			Str("panic", fmt.Sprintf("%v", r)).
			Str("stack", stackTrace).
			Msg("Recovered from panic in goroutine - continuing")
		return
	}
	fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, stackTrace)
}

// SafeGo runs a function in a goroutine with panic recovery.
// Panics are logged but don't crash the process.
//
// Example:
//
//	common.SafeGo(logger, "scheduler", func() {
//	    scheduler.Start()
//	})
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	go func() {
		defer RecoverPanic(logger, name)
		fn()
	}()
}

// SafeGoGroup is SafeGo tracked by a WaitGroup. wg.Done runs after
// recovery, so a panicking fn never blocks wg.Wait.
func SafeGoGroup(wg *sync.WaitGroup, logger arbor.ILogger, name string, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer RecoverPanic(logger, name)
		fn()
	}()
}
