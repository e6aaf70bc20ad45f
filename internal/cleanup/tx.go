package cleanup

import (
	"context"
	"sync"

	credstore "credtrust/internal/credential/store"
	"credtrust/internal/did"
	"credtrust/internal/issuer"
	"credtrust/internal/storage"
	"credtrust/internal/team"
)

// Stores bundles every store a cascade can touch. A Tx implementation hands
// the service a bundle bound to one transactional unit.
type Stores struct {
	Credentials credstore.Store
	Issuers     issuer.Store
	DIDs        did.Store
	Teams       team.Store
	Users       storage.UserStore
	Candidates  storage.CandidateStore
	Pipelines   storage.PipelineStore
	Activity    storage.ActivityStore
	Quizzes     storage.QuizStore
}

// Tx runs fn as one atomic unit: every read and write inside commits together
// or not at all.
type Tx interface {
	RunInTx(ctx context.Context, fn func(Stores) error) error
}

// MemoryTx serializes cascades over in-memory stores with one coarse lock.
// Cascades are rare admin operations; contention is not a concern, losing a
// half-applied cascade to interleaving is.
type MemoryTx struct {
	mu     sync.Mutex
	stores Stores
}

// NewMemoryTx wraps a store bundle with coarse-grained locking.
func NewMemoryTx(stores Stores) *MemoryTx {
	return &MemoryTx{stores: stores}
}

func (t *MemoryTx) RunInTx(_ context.Context, fn func(Stores) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.stores)
}
