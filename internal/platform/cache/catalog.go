package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

const (
	DefaultPrefix = "academy:catalog"
	DefaultTTL    = 5 * time.Minute
)

// Connect opens a redis client and checks it answers.
func Connect(ctx context.Context, addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// CatalogCache keeps course trees as JSON under <prefix>:course:<slug>.
type CatalogCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewCatalogCache(log *logger.Logger, rdb *goredis.Client, prefix string, ttl time.Duration) *CatalogCache {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CatalogCache{
		log:    log.With("service", "CatalogCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *CatalogCache) courseKey(slug string) string {
	return c.prefix + ":course:" + strings.ToLower(strings.TrimSpace(slug))
}

func (c *CatalogCache) GetCourse(ctx context.Context, slug string) (*types.Course, bool, error) {
	raw, err := c.rdb.Get(ctx, c.courseKey(slug)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var course types.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		// A stale encoding is treated as a miss and dropped.
		c.log.Warn("Dropping undecodable catalog entry", "slug", slug, "error", err)
		_ = c.rdb.Del(ctx, c.courseKey(slug)).Err()
		return nil, false, nil
	}
	return &course, true, nil
}

func (c *CatalogCache) SetCourse(ctx context.Context, course *types.Course) error {
	if course == nil || strings.TrimSpace(course.Slug) == "" {
		return nil
	}
	raw, err := json.Marshal(course)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.courseKey(course.Slug), raw, c.ttl).Err()
}

func (c *CatalogCache) DeleteCourse(ctx context.Context, slug string) error {
	return c.rdb.Del(ctx, c.courseKey(slug)).Err()
}
