package processing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spacesedan/textflow/internal/analysis"
	"github.com/spacesedan/textflow/internal/models"
	"github.com/spacesedan/textflow/internal/render"
)

// Invoker runs one operation over a batch.
type Invoker interface {
	Invoke(ctx context.Context, kind models.Kind, docs []models.Document, opts models.Options) ([]models.Result, error)
}

// Summary records how each task ended.
type Summary struct {
	Succeeded []models.Kind
	Skipped   []models.Kind
	Failed    map[models.Kind]error
}

// Run starts every task in its own goroutine and waits for all of them. Each
// task renders into private buffers that are copied to out/errOut whole when
// it finishes, so output blocks appear in completion order. The returned error
// joins every task failure; unsupported kinds are skipped, not failed.
func Run(ctx context.Context, invoker Invoker, tasks []Task, out, errOut io.Writer) (Summary, error) {
	summary := Summary{Failed: make(map[models.Kind]error)}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, task := range tasks {
		wg.Add(1)
		go func(task Task) {
			defer wg.Done()

			var stdout, stderr bytes.Buffer
			results, err := invoker.Invoke(ctx, task.Kind, task.Documents, task.Options)
			if err == nil {
				// Results carry the ids assigned during preparation.
				docs, prepErr := analysis.PrepareDocuments(task.Documents, task.Options)
				if prepErr != nil {
					docs = task.Documents
				}
				render.New(&stdout, &stderr).Render(task.Kind, docs, results)
			}

			mu.Lock()
			defer mu.Unlock()

			switch {
			case errors.Is(err, models.ErrUnsupportedKind):
				slog.Warn("[Runner] Skipping operation",
					slog.String("kind", string(task.Kind)),
					slog.String("reason", err.Error()))
				summary.Skipped = append(summary.Skipped, task.Kind)
				return
			case err != nil:
				slog.Error("[Runner] Operation failed",
					slog.String("kind", string(task.Kind)),
					slog.String("error", err.Error()))
				summary.Failed[task.Kind] = err
				return
			}

			summary.Succeeded = append(summary.Succeeded, task.Kind)
			if _, err := io.Copy(out, &stdout); err != nil {
				slog.Error("[Runner] Failed to write report",
					slog.String("kind", string(task.Kind)),
					slog.String("error", err.Error()))
			}
			if _, err := io.Copy(errOut, &stderr); err != nil {
				slog.Error("[Runner] Failed to write document errors",
					slog.String("kind", string(task.Kind)),
					slog.String("error", err.Error()))
			}
		}(task)
	}
	wg.Wait()

	var errs []error
	for _, task := range tasks {
		if err, ok := summary.Failed[task.Kind]; ok {
			errs = append(errs, fmt.Errorf("%s: %w", task.Kind, err))
		}
	}
	return summary, errors.Join(errs...)
}
