package preverify

import "fmt"

// Stage is a step of the pre-verification workflow. Stages only advance.
type Stage int

const (
	StageIdle Stage = iota
	StageTokenRequested
	StageTokenStored
	StageStatusUpdated
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageTokenRequested:
		return "token_requested"
	case StageTokenStored:
		return "token_stored"
	case StageStatusUpdated:
		return "status_updated"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// StageError reports a run that ended in StageFailed.
// Stage is the last stage completed before the failure.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pre-verification failed after %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
