package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExact(t *testing.T) {
	for in, want := range map[string]bool{
		"10":     true,
		"12.5":   true,
		"0.01":   true,
		"12.340": true,
		"0.004":  false,
		"12.345": false,
		"-3.001": false,
	} {
		assert.Equal(t, want, Exact(d(in)), in)
	}
}
