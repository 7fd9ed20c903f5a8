// Package cache puts memcached in front of service group lookups.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/zeebo/xxh3"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/internal/usecase"
)

const keyPrefix = "smp:sg:"

// Memcache is the subset of *memcache.Client used by the cache.
type Memcache interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
}

// ServiceGroupStore serves Get from memcached and falls back to the
// wrapped store. Entries are dropped when the wrapped store reports a change.
// Absent groups are not cached.
type ServiceGroupStore struct {
	usecase.ServiceGroupStore
	mc         Memcache
	expiration int32
}

func NewServiceGroupStore(inner usecase.ServiceGroupStore, mc Memcache, expirationSeconds int32) *ServiceGroupStore {
	s := &ServiceGroupStore{
		ServiceGroupStore: inner,
		mc:                mc,
		expiration:        expirationSeconds,
	}
	inner.AddListener(s)
	return s
}

func cacheKey(id smp.Identifier) string {
	h := xxh3.HashString(id.Canonical().URIEncoded())
	return keyPrefix + strconv.FormatUint(h, 16)
}

func (s *ServiceGroupStore) Get(ctx context.Context, id smp.Identifier) (*domain.ServiceGroup, error) {
	key := cacheKey(id)

	item, err := s.mc.Get(key)
	if err == nil {
		var sg domain.ServiceGroup
		if err := json.Unmarshal(item.Value, &sg); err == nil {
			return &sg, nil
		}
	} else if err != memcache.ErrCacheMiss {
		slog.DebugContext(
			ctx, "memcached get failed",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
	}

	sg, err := s.ServiceGroupStore.Get(ctx, id)
	if err != nil || sg == nil {
		return sg, err
	}

	value, err := json.Marshal(sg)
	if err == nil {
		err = s.mc.Set(&memcache.Item{Key: key, Value: value, Expiration: s.expiration})
	}
	if err != nil {
		slog.DebugContext(
			ctx, "memcached set failed",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
	}
	return sg, nil
}

func (s *ServiceGroupStore) invalidate(ctx context.Context, id smp.Identifier) {
	err := s.mc.Delete(cacheKey(id))
	if err != nil && err != memcache.ErrCacheMiss {
		slog.WarnContext(
			ctx, "memcached delete failed",
			slog.String("participant", id.URIEncoded()),
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
	}
}

func (s *ServiceGroupStore) ServiceGroupCreatedOrUpdated(ctx context.Context, sg domain.ServiceGroup) {
	s.invalidate(ctx, sg.ID)
}

func (s *ServiceGroupStore) ServiceGroupDeleted(ctx context.Context, id smp.Identifier) {
	s.invalidate(ctx, id)
}
