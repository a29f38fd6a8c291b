package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ConfigError
		expected string
	}{
		{
			name:     "with field",
			err:      NewConfigError("server.listen_address", "missing required field"),
			expected: "config error in server.listen_address: missing required field",
		},
		{
			name:     "without field",
			err:      NewConfigError("", "failed to load config"),
			expected: "config error: failed to load config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
		})
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("run", underlyingErr)

	expected := "command run failed: underlying error"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("expected errors.Is to match the wrapped error")
	}
}

func TestExitCode(t *testing.T) {
	recoveryErr := NewCommandError("recover", errors.New("could not interpret AI output"))
	recoveryErr.Code = ExitRecovery

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitError},
		{"config error", NewConfigError("", "bad"), ExitConfig},
		{"wrapped config error", fmt.Errorf("load: %w", NewConfigError("x", "bad")), ExitConfig},
		{"command error", NewCommandError("run", errors.New("boom")), ExitError},
		{"command error with code", recoveryErr, ExitRecovery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.expected {
				t.Errorf("expected exit code %d, got %d", tt.expected, got)
			}
		})
	}
}
