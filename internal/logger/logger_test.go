package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestNewLoggerEnvironments(t *testing.T) {
	for _, env := range []string{"local", "dev", "prod"} {
		if _, err := NewLogger(env, ""); err != nil {
			t.Errorf("NewLogger(%q): %v", env, err)
		}
	}
	if _, err := NewLogger("staging", ""); err == nil {
		t.Error("unknown environment accepted")
	}
}

func TestNewLoggerLevelOverride(t *testing.T) {
	if _, err := NewLogger("prod", "debug"); err != nil {
		t.Errorf("NewLogger with debug override: %v", err)
	}
	if _, err := NewLogger("prod", "loud"); err == nil {
		t.Error("invalid level accepted")
	}
}

func TestLoggerContextRoundTrip(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext returned nil without a stored logger")
	}
	l := zap.NewNop()
	if FromContext(ContextWithLogger(context.Background(), l)) != l {
		t.Error("stored logger not returned")
	}
}
