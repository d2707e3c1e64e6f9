package crawler

import "fmt"

// PipelineError is a run-level failure: the pipeline could not produce
// a usable result set and nothing was written downstream.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline %s failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
