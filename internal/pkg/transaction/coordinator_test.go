package transaction

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// journal records calls across participants in order.
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	j.calls = append(j.calls, s)
	j.mu.Unlock()
}

func (j *journal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

type recorder struct {
	name      string
	role      Role
	j         *journal
	beforeErr error

	before, succeeded, failed int
}

func (r *recorder) Role() Role { return r.role }

func (r *recorder) OnBeforeCommit(context.Context) error {
	r.before++
	r.j.add("before:" + r.name)
	return r.beforeErr
}

func (r *recorder) OnCommitSucceeded(context.Context) error {
	r.succeeded++
	r.j.add("succeeded:" + r.name)
	return nil
}

func (r *recorder) OnCommitFailed(context.Context) error {
	r.failed++
	r.j.add("failed:" + r.name)
	return nil
}

// unroled has no Role method and must stage first.
type unroled struct{ r *recorder }

func (u *unroled) OnBeforeCommit(ctx context.Context) error    { return u.r.OnBeforeCommit(ctx) }
func (u *unroled) OnCommitSucceeded(ctx context.Context) error { return u.r.OnCommitSucceeded(ctx) }
func (u *unroled) OnCommitFailed(ctx context.Context) error    { return u.r.OnCommitFailed(ctx) }

type repeating struct {
	recorder
	pending int
}

func (r *repeating) OnBeforeCommit(ctx context.Context) error {
	if r.pending > 0 {
		r.pending--
	}
	return r.recorder.OnBeforeCommit(ctx)
}

func (r *repeating) HasPendingWork() bool { return r.pending > 0 }

func TestCommit_OrdersParticipantsByRole(t *testing.T) {
	j := &journal{}
	eventLog := &recorder{name: "event_log", role: RoleEventLog, j: j}
	store := &recorder{name: "aggregate_store", role: RoleAggregateStore, j: j}
	subsystem := &recorder{name: "projection", role: RoleProjection, j: j}
	hook := &recorder{name: "sync_hook", role: RoleSyncProjection, j: j}

	c := NewCoordinator(func(context.Context) error {
		j.add("commit")
		return nil
	})
	c.AddParticipant(eventLog)
	c.AddParticipant(store)
	c.AddParticipant(subsystem)
	c.AddParticipant(hook)

	require.NoError(t, c.Commit(context.Background()))

	calls := j.snapshot()
	assert.Equal(t, []string{
		"before:aggregate_store",
		"before:sync_hook",
		"before:projection",
		"before:event_log",
		"commit",
	}, calls[:5])
	assert.ElementsMatch(t, []string{
		"succeeded:aggregate_store",
		"succeeded:sync_hook",
		"succeeded:projection",
		"succeeded:event_log",
	}, calls[5:])
	assert.Equal(t, StateCommitted, c.State())
}

func TestCommit_UnknownRolesStageFirstInRegistrationOrder(t *testing.T) {
	j := &journal{}
	store := &recorder{name: "store", role: RoleAggregateStore, j: j}
	a := &unroled{&recorder{name: "a", j: j}}
	b := &unroled{&recorder{name: "b", j: j}}

	c := NewCoordinator(nil)
	c.AddParticipant(store)
	c.AddParticipant(a)
	c.AddParticipant(b)

	require.NoError(t, c.Commit(context.Background()))
	assert.Equal(t, []string{"before:a", "before:b", "before:store"}, j.snapshot()[:3])
}

func TestAddParticipant_IsIdempotent(t *testing.T) {
	j := &journal{}
	p := &recorder{name: "p", role: RoleProjection, j: j}

	c := NewCoordinator(nil)
	c.AddParticipant(p)
	c.AddParticipant(p)
	c.AddParticipant(nil)

	require.Len(t, c.Participants(), 1)
	require.NoError(t, c.Commit(context.Background()))
	assert.Equal(t, 1, p.before)
	assert.Equal(t, 1, p.succeeded)
}

func TestCommit_BeforeCommitFailureNotifiesEveryone(t *testing.T) {
	j := &journal{}
	boom := errors.New("boom")
	first := &recorder{name: "first", role: RoleAggregateStore, j: j}
	second := &recorder{name: "second", role: RoleSyncProjection, j: j, beforeErr: boom}
	third := &recorder{name: "third", role: RoleEventLog, j: j}

	committed := false
	c := NewCoordinator(func(context.Context) error {
		committed = true
		return nil
	})
	c.AddParticipant(third)
	c.AddParticipant(first)
	c.AddParticipant(second)

	err := c.Commit(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var cerr *CommitError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, StageBeforeCommit, cerr.Stage)
	assert.Contains(t, cerr.Participant, "recorder")

	assert.False(t, committed)
	assert.Equal(t, 1, first.failed)
	assert.Equal(t, 1, second.failed)
	assert.Equal(t, 1, third.failed)
	assert.Equal(t, 0, third.before, "participants after the failing one must not stage")
	assert.Equal(t, 0, first.succeeded+second.succeeded+third.succeeded)
	assert.Equal(t, StateFailed, c.State())
}

func TestCommit_PhysicalCommitFailure(t *testing.T) {
	j := &journal{}
	boom := errors.New("spanner aborted")
	p := &recorder{name: "p", role: RoleEventLog, j: j}

	c := NewCoordinator(func(context.Context) error { return boom })
	c.AddParticipant(p)

	err := c.Commit(context.Background())
	assert.ErrorIs(t, err, boom)

	var cerr *CommitError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, StagePhysicalCommit, cerr.Stage)
	assert.Empty(t, cerr.Participant)

	assert.Equal(t, 1, p.before)
	assert.Equal(t, 1, p.failed)
	assert.Equal(t, 0, p.succeeded)
}

func TestCommit_RepeaterRunsToFixpoint(t *testing.T) {
	j := &journal{}
	hook := &repeating{recorder: recorder{name: "hook", role: RoleSyncProjection, j: j}, pending: 3}
	after := &recorder{name: "after", role: RoleProjection, j: j}

	c := NewCoordinator(nil)
	c.AddParticipant(after)
	c.AddParticipant(hook)

	require.NoError(t, c.Commit(context.Background()))
	assert.Equal(t, 3, hook.before)
	assert.Equal(t, []string{"before:hook", "before:hook", "before:hook", "before:after"}, j.snapshot()[:4])
}

func TestCommit_RepeaterDrainLimit(t *testing.T) {
	j := &journal{}
	hook := &repeating{recorder: recorder{name: "hook", role: RoleSyncProjection, j: j}, pending: 100}

	c := NewCoordinator(nil, WithMaxDrainPasses(4))
	c.AddParticipant(hook)

	err := c.Commit(context.Background())
	assert.ErrorIs(t, err, ErrDrainLimit)
	assert.Equal(t, 4, hook.before)
	assert.Equal(t, 1, hook.failed)
}

func TestCommit_ParticipantAddedWhileStagingIsStaged(t *testing.T) {
	j := &journal{}
	late := &recorder{name: "late", role: RoleProjection, j: j}

	var c *Coordinator
	early := &Funcs{Before: func(context.Context) error {
		j.add("before:early")
		c.AddParticipant(late)
		return nil
	}}
	c = NewCoordinator(nil)
	c.AddParticipant(early)

	require.NoError(t, c.Commit(context.Background()))
	assert.Equal(t, 1, late.before)
	assert.Equal(t, 1, late.succeeded)
}

func TestCommit_LateParticipantStagesBeforeWaitingHigherRoles(t *testing.T) {
	j := &journal{}
	late := &recorder{name: "late", role: RoleSyncProjection, j: j}
	log := &recorder{name: "log", role: RoleEventLog, j: j}

	var c *Coordinator
	store := &recorder{name: "store", role: RoleAggregateStore, j: j}
	early := &Funcs{Before: func(context.Context) error {
		j.add("before:early")
		c.AddParticipant(late)
		return nil
	}}
	c = NewCoordinator(nil)
	c.AddParticipant(log)
	c.AddParticipant(store)
	c.AddParticipant(early)

	require.NoError(t, c.Commit(context.Background()))
	assert.Equal(t, []string{
		"before:early", "before:store", "before:late", "before:log",
		"succeeded:store", "succeeded:late", "succeeded:log",
	}, j.snapshot())
}

// registering adds a participant when it stages.
type registering struct {
	recorder
	add func()
}

func (r *registering) OnBeforeCommit(ctx context.Context) error {
	r.add()
	return r.recorder.OnBeforeCommit(ctx)
}

func TestCommit_LateParticipantBelowStagedRoleFails(t *testing.T) {
	j := &journal{}
	late := &recorder{name: "late", role: RoleUnknown, j: j}

	c := NewCoordinator(nil)
	log := &registering{
		recorder: recorder{name: "log", role: RoleEventLog, j: j},
		add:      func() { c.AddParticipant(late) },
	}
	c.AddParticipant(log)

	err := c.Commit(context.Background())
	assert.ErrorIs(t, err, ErrLateParticipant)
	var ce *CommitError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StageBeforeCommit, ce.Stage)
	assert.Zero(t, late.before)
	assert.Equal(t, 1, late.failed)
	assert.Equal(t, 1, log.failed)
	assert.Equal(t, StateFailed, c.State())
}

func TestCommit_SuccessHandlerFailure(t *testing.T) {
	boom := errors.New("cleanup failed")
	p := &Funcs{Succeeded: func(context.Context) error { return boom }}

	c := NewCoordinator(nil)
	c.AddParticipant(p)

	err := c.Commit(context.Background())
	assert.ErrorIs(t, err, ErrPostCommitNotification)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateCommitted, c.State())
}

func TestCommit_RejectsReentrantCommit(t *testing.T) {
	var c *Coordinator
	var inner error
	p := &Funcs{Before: func(ctx context.Context) error {
		inner = c.Commit(ctx)
		return nil
	}}
	c = NewCoordinator(nil)
	c.AddParticipant(p)

	require.NoError(t, c.Commit(context.Background()))
	assert.ErrorIs(t, inner, ErrCommitInProgress)
}

func TestCommit_ReusableAfterTerminalState(t *testing.T) {
	j := &journal{}
	p := &recorder{name: "p", role: RoleProjection, j: j, beforeErr: errors.New("first time")}

	c := NewCoordinator(nil)
	c.AddParticipant(p)

	require.Error(t, c.Commit(context.Background()))
	p.beforeErr = nil
	require.NoError(t, c.Commit(context.Background()))
	assert.Equal(t, 1, p.failed)
	assert.Equal(t, 1, p.succeeded)
}

func TestCommit_CanceledContextStillNotifies(t *testing.T) {
	j := &journal{}
	p := &recorder{name: "p", role: RoleProjection, j: j}

	ctx, cancel := context.WithCancel(context.Background())
	c := NewCoordinator(func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	c.AddParticipant(p)

	err := c.Commit(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, p.failed)
}

func TestAbort_NotifiesFailureWithoutStaging(t *testing.T) {
	j := &journal{}
	p := &recorder{name: "p", role: RoleProjection, j: j}

	committed := false
	c := NewCoordinator(func(context.Context) error {
		committed = true
		return nil
	})
	c.AddParticipant(p)

	require.NoError(t, c.Abort(context.Background()))
	assert.False(t, committed)
	assert.Equal(t, 0, p.before)
	assert.Equal(t, 1, p.failed)
	assert.Equal(t, StateFailed, c.State())
}
