// Package testing marks the process as a test run. Importing it for side
// effects keeps the binaries' main packages from dialing Postgres or Redis
// and points the PDF renderer at an address nothing listens on.
package testing

import (
	"os"
	stdtesting "testing"
)

func setTestEnv(key, value string) {
	if _, ok := os.LookupEnv(key); !ok {
		_ = os.Setenv(key, value)
	}
}

func init() {
	_ = os.Setenv("JOBDIARY_TEST_MODE", "1")
	setTestEnv("GOTENBERG_URL", "http://127.0.0.1:0")
	setTestEnv("SESSION_SECRET", "test-session-secret")
	setTestEnv("CSRF_SECRET", "test-csrf-secret")
}

// TestMain runs m with the test environment in place.
func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
