// Package ratelimit provides per-tool token bucket rate limiting for the
// MCP server.
package ratelimit

import (
	"fmt"

	"golang.org/x/time/rate"
)

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*rate.Limiter

// NewToolLimiters creates the default set of per-tool rate limiters.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"antsim_step":   rate.NewLimiter(rate.Limit(20), 20),       // 20/second, burst 20
		"antsim_state":  rate.NewLimiter(rate.Limit(10), 10),       // 10/second, burst 10
		"antsim_reset":  rate.NewLimiter(rate.Limit(30.0/60.0), 5), // 30/minute, burst 5
		"antsim_runs":   rate.NewLimiter(rate.Limit(1), 5),         // 60/minute, burst 5
		"antsim_export": rate.NewLimiter(rate.Limit(10.0/60.0), 3), // 10/minute, burst 3
	}
}

// LimitError is returned by CheckLimit when a tool is over its limit.
type LimitError struct {
	Tool string
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, please try again shortly", e.Tool)
}

// CheckLimit checks the rate limit for a given tool name.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if !limiter.Allow() {
		return &LimitError{Tool: toolName}
	}
	return nil
}
