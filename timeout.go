package finchat

import "time"

// TimeoutConfig bounds the loop's blocking external calls.
type TimeoutConfig struct {
	RunExecution  time.Duration // total run timeout (0 = no timeout)
	LLMCall       time.Duration // per generation call (0 = no timeout)
	ToolExecution time.Duration // per tool invocation (0 = no timeout)
}

// DefaultTimeoutConfig returns sensible timeout defaults.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		RunExecution:  5 * time.Minute,
		LLMCall:       30 * time.Second,
		ToolExecution: 10 * time.Second,
	}
}

// NoTimeouts returns a config with all timeouts disabled.
func NoTimeouts() TimeoutConfig {
	return TimeoutConfig{}
}
