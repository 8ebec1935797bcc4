package committer

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/spanner"
)

// ErrNoClient is returned by Apply when the adapter has no Spanner client.
var ErrNoClient = errors.New("committer: spanner client is nil")

// Committer applies a plan atomically. It is the physical commit of a unit of work.
type Committer interface {
	Apply(ctx context.Context, plan *Plan) error
}

// Adapter applies plans in a single Spanner read-write transaction.
type Adapter struct {
	client *spanner.Client
}

func NewAdapter(client *spanner.Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Apply(ctx context.Context, plan *Plan) error {
	if plan == nil || plan.IsEmpty() {
		return nil
	}

	if a.client == nil {
		return ErrNoClient
	}

	muts := plan.Mutations()
	_, err := a.client.ReadWriteTransaction(ctx, func(ctx context.Context, tx *spanner.ReadWriteTransaction) error {
		return tx.BufferWrite(muts)
	})
	if err != nil {
		return fmt.Errorf("committer: apply %d mutations: %w", len(muts), err)
	}
	return nil
}

// Func adapts a plain function to Committer.
type Func func(ctx context.Context, plan *Plan) error

func (f Func) Apply(ctx context.Context, plan *Plan) error {
	return f(ctx, plan)
}
