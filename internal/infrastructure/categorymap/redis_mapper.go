// Package categorymap resolves internal product categories to per-platform
// category ids.
package categorymap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/crosslist/backend/internal/domain/integration"
)

// keyPrefix namespaces mapping entries in Redis.
const keyPrefix = "categorymap"

// RedisCategoryMapper looks mappings up in Redis under
// categorymap:{platform}:{category}. A missing entry is not an error; the
// orchestrator treats a nil mapping as "needs manual mapping".
type RedisCategoryMapper struct {
	client redis.UniversalClient
}

// NewRedisCategoryMapper creates a Redis-backed category mapper.
func NewRedisCategoryMapper(client redis.UniversalClient) *RedisCategoryMapper {
	return &RedisCategoryMapper{client: client}
}

// MapCategory resolves the platform category for a listing.
func (m *RedisCategoryMapper) MapCategory(ctx context.Context, listing *integration.Listing, code integration.PlatformCode) (*integration.CategoryMapping, error) {
	if listing.CategoryID == "" {
		return nil, nil
	}
	key := fmt.Sprintf("%s:%s:%s", keyPrefix, code, listing.CategoryID)
	val, err := m.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("categorymap: lookup %s: %w", key, err)
	}
	return &integration.CategoryMapping{CategoryID: val, Confidence: 1.0}, nil
}

// SetMapping stores a mapping. Used by operational tooling and tests.
func (m *RedisCategoryMapper) SetMapping(ctx context.Context, code integration.PlatformCode, internalCategory, platformCategory string) error {
	key := fmt.Sprintf("%s:%s:%s", keyPrefix, code, internalCategory)
	return m.client.Set(ctx, key, platformCategory, 0).Err()
}

// Ensure RedisCategoryMapper implements the port
var _ integration.CategoryMapper = (*RedisCategoryMapper)(nil)
