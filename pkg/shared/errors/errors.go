package errors

import (
	"fmt"
)

// CommandError represents an external tool invocation that exited non-zero or
// timed out, carrying the captured output for the caller's error message.
type CommandError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%q execution error: %v. Output: %s", e.Command, e.Err, e.Output)
	}
	return fmt.Sprintf("%q execution error: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError instance.
func NewCommandError(command string, exitCode int, output string, err error) *CommandError {
	return &CommandError{
		Command:  command,
		ExitCode: exitCode,
		Output:   output,
		Err:      err,
	}
}

// ParserError represents a batch-level report parsing failure: the report file
// is missing or is not valid JSON/CSV at the top level. Record-level problems
// are logged and skipped by the parsers instead.
type ParserError struct {
	Path string
	Err  error
}

func (e *ParserError) Error() string {
	return fmt.Sprintf("failed to parse report %q: %v", e.Path, e.Err)
}

func (e *ParserError) Unwrap() error {
	return e.Err
}

// NewParserError creates a new ParserError instance.
func NewParserError(path string, err error) *ParserError {
	return &ParserError{Path: path, Err: err}
}
