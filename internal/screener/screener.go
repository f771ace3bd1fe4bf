// Package screener resolves the scan universe: a screened list of
// underlyings from the fundamentals provider, defensively re-filtered
// and cached by criteria hash.
package screener

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

// DefaultCacheTTL is how long a screen is reused before re-querying.
const DefaultCacheTTL = 24 * time.Hour

// Screener runs the first-pass universe screen through the router.
type Screener struct {
	router *provider.Router
	cache  Cache
	ttl    time.Duration
	log    zerolog.Logger

	mu       sync.Mutex
	inflight map[string]*call
}

type call struct {
	done    chan struct{}
	results []models.ScreenerResult
	err     error
}

// New builds a screener. A nil cache disables caching.
func New(router *provider.Router, cache Cache, ttl time.Duration, log zerolog.Logger) *Screener {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Screener{
		router:   router,
		cache:    cache,
		ttl:      ttl,
		log:      log.With().Str("component", "screener").Logger(),
		inflight: make(map[string]*call),
	}
}

// Screen returns the universe for the given criteria, from cache when
// a fresh entry exists. Concurrent calls with the same criteria share
// one upstream request.
func (s *Screener) Screen(ctx context.Context, criteria models.ScreeningCriteria) ([]models.ScreenerResult, error) {
	key := cacheKey(criteria)

	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var cached []models.ScreenerResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				s.log.Debug().Str("key", key).Int("symbols", len(cached)).Msg("screen cache hit")
				return cached, nil
			}
		}
	}

	s.mu.Lock()
	if c, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		select {
		case <-c.done:
			return c.results, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	s.inflight[key] = c
	s.mu.Unlock()

	c.results, c.err = s.screen(ctx, criteria, key)
	close(c.done)

	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()

	return c.results, c.err
}

func (s *Screener) screen(ctx context.Context, criteria models.ScreeningCriteria, key string) ([]models.ScreenerResult, error) {
	started := time.Now()
	results, err := s.router.ScreenStocks(ctx, criteria)
	if err != nil {
		return nil, err
	}

	results = s.postFilter(results, criteria)
	sort.SliceStable(results, func(i, j int) bool { return results[i].MarketCap > results[j].MarketCap })
	if criteria.Limit > 0 && len(results) > criteria.Limit {
		results = results[:criteria.Limit]
	}

	s.log.Info().
		Int("symbols", len(results)).
		Dur("elapsed", time.Since(started)).
		Msg("universe screened")

	if s.cache != nil {
		if raw, err := json.Marshal(results); err == nil {
			s.cache.Set(ctx, key, raw, s.ttl)
		}
	}
	return results, nil
}

// postFilter re-applies the criteria locally. Screener endpoints are
// eventually consistent with quotes, so rows can drift out of band
// between the screen and the scan.
func (s *Screener) postFilter(in []models.ScreenerResult, criteria models.ScreeningCriteria) []models.ScreenerResult {
	out := in[:0]
	dropped := 0
	for _, r := range in {
		if r.Symbol == "" {
			dropped++
			continue
		}
		if criteria.ExcludeETFs && r.IsETF {
			dropped++
			continue
		}
		if criteria.ExcludePennies && r.Last > 0 && r.Last < 5.0 {
			dropped++
			continue
		}
		if criteria.MinPrice > 0 && r.Last > 0 && r.Last < criteria.MinPrice {
			dropped++
			continue
		}
		if criteria.MaxPrice > 0 && r.Last > criteria.MaxPrice {
			dropped++
			continue
		}
		if criteria.MinVolume > 0 && r.Volume > 0 && r.Volume < criteria.MinVolume {
			dropped++
			continue
		}
		out = append(out, r)
	}
	if dropped > 0 {
		s.log.Debug().Int("dropped", dropped).Msg("post-filter removed out-of-band rows")
	}
	return out
}

// cacheKey hashes the criteria content so any change to the filter
// invalidates the cached universe.
func cacheKey(criteria models.ScreeningCriteria) string {
	normalized := criteria
	normalized.Exchanges = append([]string(nil), criteria.Exchanges...)
	for i, ex := range normalized.Exchanges {
		normalized.Exchanges[i] = strings.ToUpper(strings.TrimSpace(ex))
	}
	sort.Strings(normalized.Exchanges)

	raw, _ := json.Marshal(normalized)
	sum := sha256.Sum256(raw)
	return "pmccscan:screen:" + hex.EncodeToString(sum[:8])
}
