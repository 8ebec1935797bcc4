package transaction

import (
	"errors"
	"fmt"
)

var (
	// ErrCommitInProgress is returned when Commit is called while another
	// commit of the same coordinator is staging.
	ErrCommitInProgress = errors.New("transaction: commit already in progress")

	// ErrDrainLimit is returned when a repeating participant still has work
	// after the configured number of passes.
	ErrDrainLimit = errors.New("transaction: drain pass limit exceeded")

	// ErrLateParticipant is returned when a participant registered during
	// staging sorts before a participant that has already staged.
	ErrLateParticipant = errors.New("transaction: participant registered after its role was staged")

	// ErrPostCommitNotification wraps failures of success handlers. The
	// physical commit is durable when this error is returned.
	ErrPostCommitNotification = errors.New("transaction: commit succeeded but notification failed")
)

// Stage names the commit phase a failure happened in.
type Stage string

const (
	StageBeforeCommit   Stage = "before_commit"
	StagePhysicalCommit Stage = "physical_commit"
)

// CommitError reports a failed commit. It unwraps to the error raised by the
// participant or by the physical commit.
type CommitError struct {
	Stage Stage
	// Participant is the Go type of the failing participant, empty for
	// physical commit failures.
	Participant string
	Err         error
}

func (e *CommitError) Error() string {
	if e.Participant != "" {
		return fmt.Sprintf("transaction: %s failed in %s: %v", e.Stage, e.Participant, e.Err)
	}
	return fmt.Sprintf("transaction: %s failed: %v", e.Stage, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
