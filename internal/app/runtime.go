package app

import (
	"os"
	"sync"
)

const testModeEnv = "BETTERFLY_TEST_MODE"

var (
	testModeMu     sync.RWMutex
	testModeLoaded bool
	testMode       bool
)

// InTestMode reports whether binaries should skip runtime side effects such
// as binding ports or connecting to Redis.
func InTestMode() bool {
	testModeMu.RLock()
	loaded, value := testModeLoaded, testMode
	testModeMu.RUnlock()
	if loaded {
		return value
	}
	RefreshTestMode()
	return InTestMode()
}

// RefreshTestMode re-reads BETTERFLY_TEST_MODE after environment changes.
func RefreshTestMode() {
	testModeMu.Lock()
	defer testModeMu.Unlock()
	testMode = os.Getenv(testModeEnv) == "1"
	testModeLoaded = true
}
