package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/spacesedan/textflow/internal/analysis"
	"github.com/spacesedan/textflow/internal/models"
)

const (
	KeyPrefix  = "textflow:results:"
	DefaultTTL = 24 * time.Hour
)

// Store is a byte-oriented key value store with expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Analyzer serves repeated batches from a Store. Only batches in which every
// document succeeded are stored. Store failures are logged and the call goes
// to the wrapped analyzer.
type Analyzer struct {
	next  analysis.Analyzer
	store Store
	ttl   time.Duration
}

func New(next analysis.Analyzer, store Store, ttl time.Duration) *Analyzer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Analyzer{next: next, store: store, ttl: ttl}
}

func (c *Analyzer) Name() string {
	return c.next.Name()
}

func (c *Analyzer) Analyze(ctx context.Context, kind models.Kind, docs []models.Document, opts models.Options) ([]models.Result, error) {
	key, err := Key(c.next.Name(), kind, docs, opts)
	if err != nil {
		return c.next.Analyze(ctx, kind, docs, opts)
	}

	raw, found, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		slog.Warn("[Cache] Lookup failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
	case found:
		var cached []models.Result
		if err := json.Unmarshal(raw, &cached); err == nil {
			slog.Debug("[Cache] Hit", slog.String("kind", string(kind)))
			return cached, nil
		}
		slog.Warn("[Cache] Discarding unreadable entry", slog.String("kind", string(kind)))
	}

	results, err := c.next.Analyze(ctx, kind, docs, opts)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.Failed() {
			return results, nil
		}
	}

	encoded, err := json.Marshal(results)
	if err != nil {
		return results, nil
	}
	if err := c.store.Set(ctx, key, encoded, c.ttl); err != nil {
		slog.Warn("[Cache] Store failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
	}
	return results, nil
}

// Key derives the cache key for a batch from everything that can change
// the service's answer.
func Key(backend string, kind models.Kind, docs []models.Document, opts models.Options) (string, error) {
	payload, err := json.Marshal(struct {
		Backend   string            `json:"backend"`
		Kind      models.Kind       `json:"kind"`
		Options   models.Options    `json:"options"`
		Documents []models.Document `json:"documents"`
	}{backend, kind, opts, docs})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return KeyPrefix + hex.EncodeToString(sum[:]), nil
}
