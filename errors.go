package finchat

import "fmt"

// Error taxonomy for a loop run. Only GenerationError and StorageError cross
// the Run boundary as hard failures; tool and dispatch errors are absorbed
// into the transcript as observation content.

// GenerationError reports a failed model call. Fatal for the current run:
// nothing is persisted.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("finchat: generation failed for model %q: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ToolExecutionError reports a tool handler failure. Recovered: converted to
// an observation turn, the run continues.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("finchat: tool %q failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// ToolNotFoundError reports a tool-call request naming an unregistered tool.
// Recovered identically to ToolExecutionError.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("finchat: tool %q not found", e.Tool)
}

// UnsupportedDispatchError reports a text-mode dispatch against a tool with
// more than one declared parameter. Text mode cannot disambiguate which
// parameter the raw Action Input belongs to.
type UnsupportedDispatchError struct {
	Tool       string
	ParamCount int
}

func (e *UnsupportedDispatchError) Error() string {
	return fmt.Sprintf("finchat: tool %q declares %d parameters; text-mode dispatch supports at most one", e.Tool, e.ParamCount)
}

// StorageError reports a persistence failure after a successful run. The
// computed result is still returned to the caller alongside this error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("finchat: storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
