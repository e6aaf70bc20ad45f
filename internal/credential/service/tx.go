package service

import (
	"context"
	"hash/fnv"
	"sync"

	"credtrust/internal/credential/store"
	id "credtrust/pkg/domain"
)

const txShards = 32

// MemoryTx serializes transitions per credential for the in-memory store. It
// gives the serialization half of a transaction, not rollback; precondition
// re-checks inside the unit guard against lost updates, which is all the
// coordinator relies on.
type MemoryTx struct {
	store  store.Store
	shards [txShards]sync.Mutex
}

// NewMemoryTx wraps an in-memory store with per-credential locking.
func NewMemoryTx(s store.Store) *MemoryTx {
	return &MemoryTx{store: s}
}

func (t *MemoryTx) RunInTx(_ context.Context, credentialID id.CredentialID, fn func(store.Store) error) error {
	shard := &t.shards[shardIndex(credentialID)]
	shard.Lock()
	defer shard.Unlock()
	return fn(t.store)
}

func shardIndex(credentialID id.CredentialID) uint32 {
	h := fnv.New32a()
	h.Write([]byte(credentialID.String()))
	return h.Sum32() % txShards
}
