package categorymap

import (
	"context"
	"sync"

	"github.com/crosslist/backend/internal/domain/integration"
)

// StaticCategoryMapper serves mappings from an in-memory table. It backs
// development setups without Redis and the orchestrator tests.
type StaticCategoryMapper struct {
	mu       sync.RWMutex
	mappings map[integration.PlatformCode]map[string]string
}

// NewStaticCategoryMapper creates an empty static mapper.
func NewStaticCategoryMapper() *StaticCategoryMapper {
	return &StaticCategoryMapper{
		mappings: make(map[integration.PlatformCode]map[string]string),
	}
}

// MapCategory resolves the platform category for a listing. A missing entry
// yields a nil mapping, not an error.
func (m *StaticCategoryMapper) MapCategory(ctx context.Context, listing *integration.Listing, code integration.PlatformCode) (*integration.CategoryMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byCategory, ok := m.mappings[code]
	if !ok {
		return nil, nil
	}
	platformCategory, ok := byCategory[listing.CategoryID]
	if !ok {
		return nil, nil
	}
	return &integration.CategoryMapping{CategoryID: platformCategory, Confidence: 1.0}, nil
}

// SetMapping stores a mapping.
func (m *StaticCategoryMapper) SetMapping(code integration.PlatformCode, internalCategory, platformCategory string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mappings[code] == nil {
		m.mappings[code] = make(map[string]string)
	}
	m.mappings[code][internalCategory] = platformCategory
}

// Ensure StaticCategoryMapper implements the port
var _ integration.CategoryMapper = (*StaticCategoryMapper)(nil)
