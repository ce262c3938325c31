package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil is OK", nil, CodeOK},
		{"tagged error", New(CodeUsage, "bad flag"), CodeUsage},
		{"wrapped tagged error", fmt.Errorf("context: %w", New(CodeConfig, "bad config")), CodeConfig},
		{"untagged error", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad flag", New(CodeUsage, "bad flag").Error())

	wrapped := Wrap(CodeOSErr, errors.New("fork failed"), "cannot detach")
	assert.Equal(t, "cannot detach: fork failed", wrapped.Error())
	assert.ErrorContains(t, errors.Unwrap(wrapped), "fork failed")
}

func TestUsageHelper(t *testing.T) {
	err := Usage("unknown unit %q", "x")
	assert.Equal(t, CodeUsage, err.Code)
	assert.Equal(t, `unknown unit "x"`, err.Message)
}
