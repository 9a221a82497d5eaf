package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spacesedan/textflow/internal/models"
)

// Analyzer sends one batch to a text analysis backend. It returns one result
// per document it has an answer for; an error means the whole batch failed.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, kind models.Kind, docs []models.Document, opts models.Options) ([]models.Result, error)
}

// Batch is a completed invocation as handed to sinks.
type Batch struct {
	ID          string
	Backend     string
	Kind        models.Kind
	Documents   []models.Document
	Results     []models.Result
	CompletedAt time.Time
}

// Sink receives every successfully invoked batch.
type Sink interface {
	Record(ctx context.Context, batch Batch) error
}

type Invoker struct {
	analyzer Analyzer
	sinks    []Sink
	now      func() time.Time
}

type Option func(*Invoker)

func WithSinks(sinks ...Sink) Option {
	return func(i *Invoker) {
		i.sinks = append(i.sinks, sinks...)
	}
}

func NewInvoker(analyzer Analyzer, opts ...Option) *Invoker {
	inv := &Invoker{
		analyzer: analyzer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

func (i *Invoker) Backend() string {
	return i.analyzer.Name()
}

// Invoke runs one operation over a batch. The returned slice always has one
// result per document, in submission order.
func (i *Invoker) Invoke(ctx context.Context, kind models.Kind, docs []models.Document, opts models.Options) ([]models.Result, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownKind, kind)
	}

	prepared, err := PrepareDocuments(docs, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	slog.Debug("[Invoker] Sending batch",
		slog.String("backend", i.analyzer.Name()),
		slog.String("kind", string(kind)),
		slog.Int("documents", len(prepared)))

	raw, err := i.analyzer.Analyze(ctx, kind, prepared, opts)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", i.analyzer.Name(), kind, err)
	}

	results := Reconcile(kind, prepared, raw)

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	slog.Info("[Invoker] Batch complete",
		slog.String("kind", string(kind)),
		slog.Int("documents", len(results)),
		slog.Int("failed", failed),
		slog.Duration("elapsed", time.Since(start)))

	completed := i.now()
	i.record(ctx, Batch{
		ID:          batchID(kind, completed),
		Backend:     i.analyzer.Name(),
		Kind:        kind,
		Documents:   prepared,
		Results:     results,
		CompletedAt: completed,
	})

	return results, nil
}

func (i *Invoker) record(ctx context.Context, batch Batch) {
	for _, sink := range i.sinks {
		if err := sink.Record(ctx, batch); err != nil {
			slog.Warn("[Invoker] Sink failed to record batch",
				slog.String("kind", string(batch.Kind)),
				slog.String("sink", fmt.Sprintf("%T", sink)),
				slog.String("error", err.Error()))
		}
	}
}

// PrepareDocuments copies docs, filling blank ids with the document index and
// blank languages with the batch default.
func PrepareDocuments(docs []models.Document, opts models.Options) ([]models.Document, error) {
	if len(docs) == 0 {
		return nil, models.ErrEmptyBatch
	}

	prepared := make([]models.Document, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for idx, doc := range docs {
		doc.ID = strings.TrimSpace(doc.ID)
		if doc.ID == "" {
			doc.ID = strconv.Itoa(idx)
		}
		if _, exists := seen[doc.ID]; exists {
			return nil, fmt.Errorf("%w: %q", models.ErrDuplicateID, doc.ID)
		}
		seen[doc.ID] = struct{}{}

		if strings.TrimSpace(doc.Language) == "" {
			doc.Language = opts.Language
		}
		prepared[idx] = doc
	}
	return prepared, nil
}

// Reconcile orders backend answers by submitted document id. Documents with
// no answer become MissingResult failures; answers for unknown ids are dropped.
func Reconcile(kind models.Kind, docs []models.Document, raw []models.Result) []models.Result {
	byID := make(map[string]models.Result, len(raw))
	for _, r := range raw {
		byID[r.ID] = r
	}

	results := make([]models.Result, 0, len(docs))
	for _, doc := range docs {
		r, ok := byID[doc.ID]
		if !ok {
			slog.Warn("[Invoker] No result returned for document",
				slog.String("kind", string(kind)),
				slog.String("document_id", doc.ID))
			results = append(results, models.Failure(kind, doc.ID, models.CodeMissingResult, "no result returned for document"))
			continue
		}
		delete(byID, doc.ID)
		r.Kind = kind
		results = append(results, r)
	}

	for id := range byID {
		slog.Warn("[Invoker] Dropping result for unknown document",
			slog.String("kind", string(kind)),
			slog.String("document_id", id))
	}

	return results
}

func batchID(kind models.Kind, at time.Time) string {
	return fmt.Sprintf("%s-%d", kind, at.UnixNano())
}
