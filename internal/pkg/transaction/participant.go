// Package transaction coordinates the participants of one unit of work
// around a single physical commit.
package transaction

import (
	"context"
	"fmt"
)

// Participant is notified around the commit boundary of a unit of work.
// Participants must be comparable (pointer types); the coordinator tracks
// them by identity.
type Participant interface {
	// OnBeforeCommit stages the participant's writes. An error aborts the commit.
	OnBeforeCommit(ctx context.Context) error
	// OnCommitSucceeded runs after the physical commit succeeded.
	OnCommitSucceeded(ctx context.Context) error
	// OnCommitFailed runs after any failure. It must reset the participant
	// to its initial state.
	OnCommitFailed(ctx context.Context) error
}

// Role fixes where a participant stages relative to the others. Lower roles stage first.
type Role int

const (
	RoleUnknown        Role = 0
	RoleAggregateStore Role = 100
	RoleSyncProjection Role = 101
	RoleProjection     Role = 102
	RoleEventLog       Role = 103
)

func (r Role) String() string {
	switch r {
	case RoleUnknown:
		return "unknown"
	case RoleAggregateStore:
		return "aggregate_store"
	case RoleSyncProjection:
		return "sync_projection"
	case RoleProjection:
		return "projection"
	case RoleEventLog:
		return "event_log"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Roled participants declare their Role. Participants that don't are RoleUnknown.
type Roled interface {
	Role() Role
}

// Repeater participants can create more work for themselves while staging.
// The coordinator re-runs OnBeforeCommit until HasPendingWork reports false.
type Repeater interface {
	HasPendingWork() bool
}

// RoleOf returns the declared role of p.
func RoleOf(p Participant) Role {
	if r, ok := p.(Roled); ok {
		return r.Role()
	}
	return RoleUnknown
}

// Funcs adapts plain functions to Participant. Nil funcs are no-ops.
type Funcs struct {
	Before    func(ctx context.Context) error
	Succeeded func(ctx context.Context) error
	Failed    func(ctx context.Context) error
}

func (f *Funcs) OnBeforeCommit(ctx context.Context) error {
	if f.Before == nil {
		return nil
	}
	return f.Before(ctx)
}

func (f *Funcs) OnCommitSucceeded(ctx context.Context) error {
	if f.Succeeded == nil {
		return nil
	}
	return f.Succeeded(ctx)
}

func (f *Funcs) OnCommitFailed(ctx context.Context) error {
	if f.Failed == nil {
		return nil
	}
	return f.Failed(ctx)
}
