package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/ctxutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

// PermissionCache stores resolved permission sets per user.
type PermissionCache interface {
	Get(ctx context.Context, userID uuid.UUID) ([]string, bool)
	Set(ctx context.Context, userID uuid.UUID, perms []string)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

func permissionKey(userID uuid.UUID) string { return "perm:" + userID.String() }

type redisPermissionCache struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRedisPermissionCache(rdb *goredis.Client, ttl time.Duration, log *logger.Logger) PermissionCache {
	return &redisPermissionCache{rdb: rdb, ttl: ttl, log: log.With("component", "RedisPermissionCache")}
}

func (c *redisPermissionCache) Get(ctx context.Context, userID uuid.UUID) ([]string, bool) {
	raw, err := c.rdb.Get(ctx, permissionKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("permission cache read failed", "user_id", userID, "error", err)
		}
		return nil, false
	}
	var perms []string
	if err := json.Unmarshal(raw, &perms); err != nil {
		return nil, false
	}
	return perms, true
}

func (c *redisPermissionCache) Set(ctx context.Context, userID uuid.UUID, perms []string) {
	raw, err := json.Marshal(perms)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, permissionKey(userID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("permission cache write failed", "user_id", userID, "error", err)
	}
}

func (c *redisPermissionCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.rdb.Del(ctx, permissionKey(userID)).Err(); err != nil {
		c.log.Warn("permission cache invalidate failed", "user_id", userID, "error", err)
	}
}

type memoryEntry struct {
	perms     []string
	expiresAt time.Time
}

type memoryPermissionCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryPermissionCache is used when no Redis address is configured.
func NewMemoryPermissionCache(ttl time.Duration) PermissionCache {
	return &memoryPermissionCache{ttl: ttl, entries: map[string]memoryEntry{}, now: time.Now}
}

func (c *memoryPermissionCache) Get(_ context.Context, userID uuid.UUID) ([]string, bool) {
	c.mu.RLock()
	e, ok := c.entries[permissionKey(userID)]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return append([]string(nil), e.perms...), true
}

func (c *memoryPermissionCache) Set(_ context.Context, userID uuid.UUID, perms []string) {
	c.mu.Lock()
	c.entries[permissionKey(userID)] = memoryEntry{perms: append([]string(nil), perms...), expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *memoryPermissionCache) Invalidate(_ context.Context, userID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, permissionKey(userID))
	c.mu.Unlock()
}

type PermissionService interface {
	// Resolve returns the effective permission set: role defaults plus per-user overrides.
	Resolve(dbc dbctx.Context, userID uuid.UUID, role string) ([]string, error)
	// Require returns 403 unless the request principal holds perm.
	Require(dbc dbctx.Context, perm string) error
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type permissionService struct {
	log      *logger.Logger
	permRepo repos.UserPermissionRepo
	cache    PermissionCache
}

func NewPermissionService(log *logger.Logger, permRepo repos.UserPermissionRepo, cache PermissionCache) PermissionService {
	return &permissionService{
		log:      log.With("service", "PermissionService"),
		permRepo: permRepo,
		cache:    cache,
	}
}

// EffectivePermissions merges role defaults with overrides. Result is sorted.
func EffectivePermissions(role string, overrides []*types.UserPermission) []string {
	set := map[string]bool{}
	for _, p := range user.RolePermissions[role] {
		set[p] = true
	}
	for _, o := range overrides {
		if o.Granted {
			set[o.Permission] = true
		} else {
			delete(set, o.Permission)
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (s *permissionService) Resolve(dbc dbctx.Context, userID uuid.UUID, role string) ([]string, error) {
	if role == user.RoleSuperadmin {
		perms := append([]string(nil), user.AllPermissions...)
		sort.Strings(perms)
		return perms, nil
	}
	ctx := ctxutil.Default(dbc.Ctx)
	if s.cache != nil {
		if perms, ok := s.cache.Get(ctx, userID); ok {
			return perms, nil
		}
	}
	overrides, err := s.permRepo.ListByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load permission overrides: %w", err)
	}
	perms := EffectivePermissions(role, overrides)
	if s.cache != nil {
		s.cache.Set(ctx, userID, perms)
	}
	return perms, nil
}

func (s *permissionService) Require(dbc dbctx.Context, perm string) error {
	rd, err := requestData(dbc.Ctx)
	if err != nil {
		return err
	}
	perms, err := s.Resolve(dbc, rd.UserID, rd.Role)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(perms, perm)
	if i < len(perms) && perms[i] == perm {
		return nil
	}
	return apierr.Forbidden(fmt.Sprintf("missing permission %s", perm))
}

func (s *permissionService) Invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
}
