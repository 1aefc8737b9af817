package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// SuggestionCache stores suggestions by key. storage.SQLiteStore
// implements it.
type SuggestionCache interface {
	GetSuggestion(ctx context.Context, key string) (string, error)
	SetSuggestion(ctx context.Context, key, categoryID string) error
}

// CachedSuggester wraps a Suggester with a persistent cache.
type CachedSuggester struct {
	inner Suggester
	cache SuggestionCache
}

// NewCachedSuggester creates a cached suggester.
func NewCachedSuggester(inner Suggester, cache SuggestionCache) *CachedSuggester {
	return &CachedSuggester{inner: inner, cache: cache}
}

// hashProduct creates a SHA256 key from the fields that identify a product.
// Includes a length prefix for each field to prevent boundary collisions.
func hashProduct(p Product) string {
	h := sha256.New()
	for _, field := range []string{p.Name, p.Category, p.Subcategory} {
		binary.Write(h, binary.LittleEndian, int64(len(field)))
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Suggest returns a cached answer when one exists. Only non-empty
// suggestions are cached, so "no fit" is asked again next run.
func (c *CachedSuggester) Suggest(ctx context.Context, p Product, candidates []Candidate) (string, error) {
	key := hashProduct(p)

	if c.cache != nil {
		cached, err := c.cache.GetSuggestion(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check suggestion cache")
		} else if cached != "" && hasCandidate(candidates, cached) {
			log.Debug().Str("hash", key[:16]).Msg("suggestion cache hit")
			return cached, nil
		}
	}

	id, err := c.inner.Suggest(ctx, p, candidates)
	if err != nil {
		return "", err
	}

	if c.cache != nil && id != "" {
		if err := c.cache.SetSuggestion(ctx, key, id); err != nil {
			log.Warn().Err(err).Msg("failed to cache suggestion")
		} else {
			log.Debug().Str("hash", key[:16]).Msg("cached suggestion")
		}
	}

	return id, nil
}

func hasCandidate(candidates []Candidate, id string) bool {
	for _, c := range candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}
