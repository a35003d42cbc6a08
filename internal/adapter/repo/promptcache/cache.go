// Package promptcache puts an expiring LRU in front of a prompt lookup so a
// burst of generations for the same prompt reads it from the database once.
package promptcache

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
)

// Cache implements domain.PromptLookup. Misses and lookup errors are never cached.
type Cache struct {
	next  domain.PromptLookup
	cache *expirable.LRU[int64, domain.Prompt]
}

// New wraps next. A non-positive size or ttl disables caching.
func New(next domain.PromptLookup, size int, ttl time.Duration) *Cache {
	c := &Cache{next: next}
	if size > 0 && ttl > 0 {
		c.cache = expirable.NewLRU[int64, domain.Prompt](size, nil, ttl)
	}
	return c
}

func (c *Cache) GetByID(ctx context.Context, id int64) (*domain.Prompt, error) {
	if c.cache != nil {
		if p, ok := c.cache.Get(id); ok {
			return clonePrompt(p), nil
		}
	}
	p, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("prompt lookup returned nil")
	}
	if c.cache != nil {
		c.cache.Add(id, *clonePrompt(*p))
	}
	return p, nil
}

func clonePrompt(p domain.Prompt) *domain.Prompt {
	p.Slots = append([]domain.PromptSlot(nil), p.Slots...)
	return &p
}

var _ domain.PromptLookup = (*Cache)(nil)
