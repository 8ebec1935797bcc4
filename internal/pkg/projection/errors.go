package projection

import "fmt"

// ProjectionError reports a projector failure. It unwraps to the projector's error.
type ProjectionError struct {
	Projector     string
	AggregateType string
	AggregateID   string
	// Phase is "project" or "commit".
	Phase string
	Err   error
}

func (e *ProjectionError) Error() string {
	if e.AggregateID == "" {
		return fmt.Sprintf("projection: %s %s: %v", e.Projector, e.Phase, e.Err)
	}
	return fmt.Sprintf("projection: %s %s %s/%s: %v", e.Projector, e.Phase, e.AggregateType, e.AggregateID, e.Err)
}

func (e *ProjectionError) Unwrap() error {
	return e.Err
}
