// Package sandbox declares the code-execution boundary used by the
// file-analysis flow. The engine only ever talks to this interface;
// the host supplies the implementation.
package sandbox

import "context"

// InputFile is a file made available to the code before it runs.
type InputFile struct {
	// Name is the path the code sees, relative to its working directory.
	Name string

	// Content is the raw file content.
	Content []byte
}

// OutputFile is a file the code produced while running.
type OutputFile struct {
	Name    string
	Content []byte
}

// Request describes one isolated execution.
type Request struct {
	// Language selects the runtime, for example "python".
	Language string

	// Code is the program to run.
	Code string

	// Files are staged into the working directory before execution.
	Files []InputFile
}

// Result is what the execution produced.
type Result struct {
	Stdout string
	Stderr string

	// ExitCode is the process exit code; zero means success.
	ExitCode int

	// Files are the files generated or modified during the run.
	Files []OutputFile
}

// Runner executes untrusted code in isolation. Implementations must
// honor ctx cancellation and never let the code touch the host.
type Runner interface {
	Run(ctx context.Context, req *Request) (*Result, error)
}
