package repo

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/spanner"
	"google.golang.org/grpc/codes"

	domain "github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/app/product/contracts"
	"github.com/murkotick/product-projections/internal/pkg/events"
	"github.com/murkotick/product-projections/internal/pkg/transaction"
	"github.com/murkotick/product-projections/internal/pkg/unitofwork"
)

// ProductStore is the aggregate store of a unit of work. It hands out
// products, and when the unit of work commits it stages their snapshots and
// moves their uncommitted events into the event buffer, which is what the
// projections and the event log consume.
type ProductStore struct {
	work   *unitofwork.UnitOfWork
	reader contracts.ProductReader
	repo   contracts.ProductRepo

	mu      sync.Mutex
	tracked map[string]*domain.Product
	order   []string
	// appended counts the events of each product already moved to the buffer.
	appended map[string]int
}

var (
	_ transaction.Participant = (*ProductStore)(nil)
	_ transaction.Roled       = (*ProductStore)(nil)
)

// NewProductStore returns a constructor for unitofwork.Factory.Begin. The
// store it builds is passed to bind so the caller can keep a handle on it.
func NewProductStore(reader contracts.ProductReader, repo contracts.ProductRepo, bind func(*ProductStore)) unitofwork.Constructor {
	return func(u *unitofwork.UnitOfWork) transaction.Participant {
		s := &ProductStore{
			work:     u,
			reader:   reader,
			repo:     repo,
			tracked:  make(map[string]*domain.Product),
			appended: make(map[string]int),
		}
		if bind != nil {
			bind(s)
		}
		return s
	}
}

func (s *ProductStore) Role() transaction.Role {
	return transaction.RoleAggregateStore
}

// Get returns the tracked product or loads it.
func (s *ProductStore) Get(ctx context.Context, productID string) (*domain.Product, error) {
	s.mu.Lock()
	if p, ok := s.tracked[productID]; ok {
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()

	p, err := s.reader.Load(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.track(p)
	return p, nil
}

// Add tracks a product created in this unit of work.
func (s *ProductStore) Add(p *domain.Product) {
	s.track(p)
}

func (s *ProductStore) track(p *domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tracked[p.ID()]; ok {
		return
	}
	s.tracked[p.ID()] = p
	s.order = append(s.order, p.ID())
}

// OnBeforeCommit stages the snapshot of every product with new events and
// appends those events at the positions following the product's version.
func (s *ProductStore) OnBeforeCommit(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buffer := s.work.EventBuffer()
	for _, id := range s.order {
		p := s.tracked[id]
		pending := p.UncommittedEvents()
		done := s.appended[id]
		if done >= len(pending) {
			continue
		}
		for i := done; i < len(pending); i++ {
			buffer.Append(events.New(domain.AggregateType, p.Version()+int64(i)+1, pending[i]))
		}
		s.appended[id] = len(pending)

		if p.IsNew() {
			s.work.Plan().Add(s.repo.InsertMut(p))
		} else {
			s.work.Plan().Add(s.repo.UpdateMut(p))
		}
	}
	return nil
}

// OnCommitSucceeded advances every product to the stream head the commit
// reached, including events projections appended on its behalf.
func (s *ProductStore) OnCommitSucceeded(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buffer := s.work.EventBuffer()
	for _, id := range s.order {
		p := s.tracked[id]
		if len(p.UncommittedEvents()) == 0 {
			continue
		}
		h := head(p)
		if next := buffer.NextSequence(id); next-1 > h {
			h = next - 1
		}
		p.MarkCommitted(h)
	}
	s.reset()
	return nil
}

// OnCommitFailed forgets every product. Their in-memory state is not
// durable and must be reloaded.
func (s *ProductStore) OnCommitFailed(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func (s *ProductStore) reset() {
	s.tracked = make(map[string]*domain.Product)
	s.order = nil
	s.appended = make(map[string]int)
}

// LoadTarget returns the live product for synchronous projectors so they see
// the state the events produced before it is committed.
func (s *ProductStore) LoadTarget(_ context.Context, aggregateType, aggregateID string) (any, error) {
	if aggregateType != domain.AggregateType {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.tracked[aggregateID]
	if !ok {
		return nil, nil
	}
	return p, nil
}

// TranslateCommitError maps a stream-position or snapshot conflict to
// domain.ErrConcurrentModification.
func TranslateCommitError(err error) error {
	if err == nil {
		return nil
	}
	if spanner.ErrCode(err) == codes.AlreadyExists {
		return errors.Join(domain.ErrConcurrentModification, err)
	}
	return err
}
