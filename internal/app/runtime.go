package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "AVSUITE_TEST_MODE"

var (
	testModeMu     sync.RWMutex
	testModeLoaded bool
	testMode       bool
)

// InTestMode reports whether the binaries should exit before touching any backend.
// The flag is read from AVSUITE_TEST_MODE on first use.
func InTestMode() bool {
	testModeMu.RLock()
	if testModeLoaded {
		defer testModeMu.RUnlock()
		return testMode
	}
	testModeMu.RUnlock()
	RefreshTestMode()
	testModeMu.RLock()
	defer testModeMu.RUnlock()
	return testMode
}

// RefreshTestMode re-reads the flag after environment changes.
func RefreshTestMode() {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testModeMu.Lock()
	testMode = on
	testModeLoaded = true
	testModeMu.Unlock()
}
