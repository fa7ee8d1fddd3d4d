package pipeline

import "fmt"

// Stage names reported in StageError
const (
	StageConfig    = "config"
	StageDecode    = "decode"
	StageSegment   = "segment"
	StageComposite = "composite"
	StageFrame     = "frame"
	StageEnhance   = "enhance"
	StageEncode    = "encode"
	StageLayout    = "layout"
)

// StageError records which stage aborted a run
type StageError struct {
	Stage string
	Err   error
}

// Error returns the stage name followed by the wrapped error.
func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

// Unwrap returns the wrapped error.
func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
