package testrunner

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunNoCommand(t *testing.T) {
	r := New(nil, time.Second, t.TempDir())
	result := r.Run(context.Background())
	if !result.Success {
		t.Errorf("Missing test command must report success, got %+v", result)
	}
	if !strings.Contains(result.Message, "skipping") {
		t.Errorf("Expected skip message, got %q", result.Message)
	}
}

func TestRunSuccess(t *testing.T) {
	r := New([]string{"true"}, time.Second, t.TempDir())
	result := r.Run(context.Background())
	if !result.Success {
		t.Errorf("Expected success, got %+v", result)
	}
}

func TestRunFailure(t *testing.T) {
	r := New([]string{"false"}, time.Second, t.TempDir())
	result := r.Run(context.Background())
	if result.Success {
		t.Error("Failing command must report failure")
	}
}

func TestRunTimeout(t *testing.T) {
	r := New([]string{"sleep", "5"}, 100*time.Millisecond, t.TempDir())
	result := r.Run(context.Background())
	if result.Success {
		t.Error("Timed-out command must report failure")
	}
	if !strings.Contains(result.Message, "timed out") {
		t.Errorf("Expected timeout message, got %q", result.Message)
	}
}
