package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Service looks prompts up through the cache first and then through the
// backing store with a cascading specificity fallback: most specific locals
// first, base record last.
type Service struct {
	store  Store
	cache  *Cache
	logger *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache sets the cache fronting the store. Defaults to the process-wide
// cache.
func WithCache(cache *Cache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a prompt lookup service over the given store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = DefaultCache()
	}
	return s
}

// Lookup returns the most specific prompt record satisfiable by the
// supplied locals. The store is queried in strict descending-specificity
// order and the first match wins:
//
//  1. all three locals (only attempted when all three are present)
//  2. local_1 + local_2, local_3 unset (when both are present)
//  3. local_1 alone, local_2 and local_3 unset (when present)
//  4. base record with all locals unset
//
// When no locals are supplied the base lookup runs directly. Only store
// failures other than ErrNotFound propagate; a miss at one level just
// cascades to the next.
func (s *Service) Lookup(ctx context.Context, area, key string, locals *Locals) (*Record, error) {
	if rec, ok := s.cache.Get(area, key); ok {
		return rec, nil
	}

	for _, q := range cascadeQueries(area, key, locals) {
		rec, err := s.store.Lookup(ctx, q)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("prompt store lookup %s/%s: %w", area, key, err)
		}
		s.cache.Set(rec)
		return rec, nil
	}

	s.logger.Debug("prompt not found at any specificity level",
		slog.String("area", area),
		slog.String("key", key))
	return nil, ErrNotFound
}

// cascadeQueries builds the ordered query list for one lookup.
func cascadeQueries(area, key string, locals *Locals) []Query {
	queries := make([]Query, 0, 4)
	if locals != nil {
		if locals.Local1 != "" && locals.Local2 != "" && locals.Local3 != "" {
			queries = append(queries, Query{Area: area, Key: key,
				Local1: locals.Local1, Local2: locals.Local2, Local3: locals.Local3})
		}
		if locals.Local1 != "" && locals.Local2 != "" {
			queries = append(queries, Query{Area: area, Key: key,
				Local1: locals.Local1, Local2: locals.Local2})
		}
		if locals.Local1 != "" {
			queries = append(queries, Query{Area: area, Key: key, Local1: locals.Local1})
		}
	}
	queries = append(queries, Query{Area: area, Key: key})
	return queries
}

// Invalidate removes the cached entry for (area, key) so the next lookup
// hits the store.
func (s *Service) Invalidate(area, key string) {
	s.cache.Invalidate(area, key)
}
