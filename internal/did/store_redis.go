package did

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	platformredis "credtrust/internal/platform/redis"
)

// cacheTTL bounds staleness of cached assignments. DIDs are write-once for
// teams and issuers, so a short TTL only matters for the platform singleton
// and for freshly assigned DIDs read on another node.
const cacheTTL = 5 * time.Minute

// CachedStore is a read-through Redis cache in front of another Store.
// Writes go to the backing store first, then refresh or drop the cached
// entry. Cache failures degrade to backing-store reads, never to errors.
type CachedStore struct {
	backing Store
	client  *platformredis.Client
	logger  *slog.Logger
}

// NewCachedStore wraps the backing store with a Redis cache. If the client is
// nil the backing store is returned unchanged.
func NewCachedStore(backing Store, client *platformredis.Client, logger *slog.Logger) Store {
	if client == nil {
		return backing
	}
	return &CachedStore{backing: backing, client: client, logger: logger}
}

func (s *CachedStore) Create(ctx context.Context, assignment Assignment) error {
	if err := s.backing.Create(ctx, assignment); err != nil {
		return err
	}
	s.setCache(ctx, assignment)
	return nil
}

func (s *CachedStore) Upsert(ctx context.Context, assignment Assignment) error {
	if err := s.backing.Upsert(ctx, assignment); err != nil {
		return err
	}
	s.setCache(ctx, assignment)
	return nil
}

func (s *CachedStore) Find(ctx context.Context, ownerType OwnerType, ownerID uuid.UUID) (Assignment, error) {
	key := cacheKey(ownerType, ownerID)
	raw, err := s.client.Get(ctx, key).Result()
	if err == nil {
		var assignment Assignment
		if json.Unmarshal([]byte(raw), &assignment) == nil {
			return assignment, nil
		}
	} else if err != redis.Nil && s.logger != nil {
		s.logger.Warn("did cache read failed", "error", err, "key", key)
	}

	assignment, err := s.backing.Find(ctx, ownerType, ownerID)
	if err != nil {
		return Assignment{}, err
	}
	s.setCache(ctx, assignment)
	return assignment, nil
}

func (s *CachedStore) DeleteByOwner(ctx context.Context, ownerType OwnerType, ownerID uuid.UUID) error {
	if err := s.backing.DeleteByOwner(ctx, ownerType, ownerID); err != nil {
		return err
	}
	if err := s.client.Del(ctx, cacheKey(ownerType, ownerID)).Err(); err != nil && s.logger != nil {
		s.logger.Warn("did cache invalidation failed", "error", err)
	}
	return nil
}

func (s *CachedStore) setCache(ctx context.Context, assignment Assignment) {
	value, err := json.Marshal(assignment)
	if err != nil {
		return
	}
	key := cacheKey(assignment.OwnerType, assignment.OwnerID)
	if err := s.client.Set(ctx, key, value, cacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Warn("did cache write failed", "error", err, "key", key)
	}
}

func cacheKey(ownerType OwnerType, ownerID uuid.UUID) string {
	return fmt.Sprintf("did:%s:%x", ownerType, ownerID)
}
