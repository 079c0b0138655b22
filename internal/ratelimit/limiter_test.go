package ratelimit

import (
	"errors"
	"testing"

	"golang.org/x/time/rate"
)

func TestCheckLimit_WithinBurst(t *testing.T) {
	limiters := ToolLimiters{"tool": rate.NewLimiter(rate.Limit(0.001), 3)}

	for i := 0; i < 3; i++ {
		if err := CheckLimit(limiters, "tool"); err != nil {
			t.Errorf("request %d should be allowed (within burst): %v", i+1, err)
		}
	}
}

func TestCheckLimit_ExceedsBurst(t *testing.T) {
	limiters := ToolLimiters{"tool": rate.NewLimiter(rate.Limit(0.001), 1)}

	if err := CheckLimit(limiters, "tool"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	err := CheckLimit(limiters, "tool")
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError, got %v", err)
	}
	if limitErr.Tool != "tool" {
		t.Errorf("Tool = %q, want %q", limitErr.Tool, "tool")
	}
}

func TestCheckLimit_IndependentTools(t *testing.T) {
	limiters := ToolLimiters{
		"a": rate.NewLimiter(rate.Limit(0.001), 1),
		"b": rate.NewLimiter(rate.Limit(0.001), 1),
	}

	CheckLimit(limiters, "a")
	if err := CheckLimit(limiters, "a"); err == nil {
		t.Error("a should be exhausted")
	}
	if err := CheckLimit(limiters, "b"); err != nil {
		t.Errorf("b should be allowed (independent bucket): %v", err)
	}
}

func TestCheckLimit_UnknownTool(t *testing.T) {
	if err := CheckLimit(ToolLimiters{}, "anything"); err != nil {
		t.Errorf("tools without a limiter should be allowed: %v", err)
	}
}

func TestNewToolLimiters(t *testing.T) {
	limiters := NewToolLimiters()
	for _, tool := range []string{"antsim_step", "antsim_state", "antsim_reset", "antsim_runs", "antsim_export"} {
		if _, ok := limiters[tool]; !ok {
			t.Errorf("missing limiter for %s", tool)
		}
	}
}
