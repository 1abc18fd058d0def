package driven

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alorle/censo-escolar/internal/institution"
)

// RedisListCache caches listing pages in Redis.
//
// Each state has a version counter and page keys embed it, so invalidating a
// state is a single INCR and stale pages simply expire. Pages are stored under
// the version observed by the lookup that missed, never the current one.
type RedisListCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisListCacheOption configures a RedisListCache.
type RedisListCacheOption func(*RedisListCache)

// WithListCachePrefix sets the key prefix (default "censo:listagem").
func WithListCachePrefix(prefix string) RedisListCacheOption {
	return func(c *RedisListCache) { c.prefix = strings.Trim(prefix, ":") }
}

// WithListCacheTTL sets how long a page stays cached (default 10 minutes).
func WithListCacheTTL(d time.Duration) RedisListCacheOption {
	return func(c *RedisListCache) { c.ttl = d }
}

// NewRedisListCache creates a listing cache on the given client.
func NewRedisListCache(rdb *redis.Client, opts ...RedisListCacheOption) *RedisListCache {
	c := &RedisListCache{
		rdb:    rdb,
		prefix: "censo:listagem",
		ttl:    10 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pageDTO struct {
	Items      []institutionDTO `json:"items"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalItems int              `json:"total_items"`
	TotalPages int              `json:"total_pages"`
}

func (c *RedisListCache) versionKey(uf string) string {
	return fmt.Sprintf("%s:%s:versao", c.prefix, uf)
}

func (c *RedisListCache) pageKey(q institution.ListQuery, version int64) string {
	return fmt.Sprintf("%s:%s:%d:ano=%d:page=%d:per_page=%d:q=%s",
		c.prefix, q.UF, version, q.Year, q.Page, q.PerPage, url.QueryEscape(strings.ToLower(q.Search)))
}

func (c *RedisListCache) version(ctx context.Context, uf string) (int64, error) {
	v, err := c.rdb.Get(ctx, c.versionKey(uf)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// GetPage returns the cached page for q, if any, and the state version the
// lookup saw.
func (c *RedisListCache) GetPage(ctx context.Context, q institution.ListQuery) (institution.Page, int64, bool, error) {
	version, err := c.version(ctx, q.UF)
	if err != nil {
		return institution.Page{}, 0, false, err
	}

	data, err := c.rdb.Get(ctx, c.pageKey(q, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return institution.Page{}, version, false, nil
	}
	if err != nil {
		return institution.Page{}, version, false, err
	}

	var dto pageDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return institution.Page{}, version, false, fmt.Errorf("decoding cached page: %w", err)
	}
	items := make([]institution.Institution, len(dto.Items))
	for i, d := range dto.Items {
		items[i] = dtoToInstitution(d)
	}
	return institution.Page{
		Items:      items,
		Page:       dto.Page,
		PerPage:    dto.PerPage,
		TotalItems: dto.TotalItems,
		TotalPages: dto.TotalPages,
	}, version, true, nil
}

// PutPage stores a page under version, which must come from the GetPage that
// missed. If the state was invalidated since, the page is written where no
// lookup will find it and expires with the TTL.
func (c *RedisListCache) PutPage(ctx context.Context, q institution.ListQuery, version int64, page institution.Page) error {
	dto := pageDTO{
		Items:      make([]institutionDTO, len(page.Items)),
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	}
	for i, inst := range page.Items {
		dto.Items[i] = institutionToDTO(inst)
	}
	data, err := json.Marshal(dto)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.pageKey(q, version), data, c.ttl).Err()
}

// InvalidateUF bumps the state's version so its cached pages are no longer read.
func (c *RedisListCache) InvalidateUF(ctx context.Context, acronym string) error {
	return c.rdb.Incr(ctx, c.versionKey(strings.ToUpper(acronym))).Err()
}

// Ping checks the Redis connection.
func (c *RedisListCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
