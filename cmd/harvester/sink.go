package main

import (
	"fmt"
	"io"

	"harvester/internal/pipeline"
)

// consoleSink prints pipeline events as they arrive. Events are consumed
// on the caller's goroutine; nothing here blocks the pipeline.
type consoleSink struct {
	w io.Writer
}

func newConsoleSink(w io.Writer) *consoleSink {
	return &consoleSink{w: w}
}

func (s *consoleSink) StageStart(stage pipeline.Stage) {
	fmt.Fprintf(s.w, "[%s] %s...\n", stage, stage.Label())
}

func (s *consoleSink) Progress(stage pipeline.Stage, message string) {
	fmt.Fprintf(s.w, "[%s]   %s\n", stage, message)
}

func (s *consoleSink) StageComplete(stage pipeline.Stage, message string) {
	fmt.Fprintf(s.w, "[%s] done: %s\n", stage, message)
}

func (s *consoleSink) StageError(stage pipeline.Stage, message string) {
	fmt.Fprintf(s.w, "[%s] error: %s\n", stage, message)
}
