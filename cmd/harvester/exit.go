package main

// Process exit codes. Gate enforcement is CLI policy: the pipeline
// itself never fails a run for coverage gaps.
const (
	exitSuccess       = 0
	exitCoverageGaps  = 2
	exitInvalidConfig = 3
	exitInternalError = 5
)

type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string { return e.message }

func exitWith(code int, message string) error {
	return &exitError{code: code, message: message}
}
