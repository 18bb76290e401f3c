package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

// TestModeEnv disables network side effects in the binaries when truthy.
const TestModeEnv = "JOBDIARY_TEST_MODE"

var testMode atomic.Pointer[bool]

// InTestMode reports whether the binaries should start without touching
// Postgres, Redis or the notification providers. The variable is read once.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads the environment, for tests that toggle it.
func RefreshTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(TestModeEnv))
	testMode.Store(&on)
	return on
}
