package clients

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spacesedan/textflow/internal/langdetect"
	"github.com/spacesedan/textflow/internal/models"
	"github.com/spacesedan/textflow/internal/sentiment"
)

// LocalClient answers sentiment and language detection offline with VADER
// and lingua. It never touches the network.
type LocalClient struct {
	detector *langdetect.Detector
}

func NewLocalClient(detector *langdetect.Detector) *LocalClient {
	if detector == nil {
		detector = langdetect.New()
	}
	slog.Info("[LocalClient] Initializing offline analyzer")
	return &LocalClient{detector: detector}
}

func (l *LocalClient) Name() string {
	return BACKEND_LOCAL
}

func (l *LocalClient) Analyze(ctx context.Context, kind models.Kind, docs []models.Document, opts models.Options) ([]models.Result, error) {
	switch kind {
	case models.KindSentiment, models.KindOpinionMining, models.KindLanguage:
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedKind, kind)
	}

	results := make([]models.Result, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(doc.Text) == "" {
			results = append(results, models.Failure(kind, doc.ID, models.CodeInvalidDocument, "Document text is empty."))
			continue
		}

		result := models.Result{ID: doc.ID, Kind: kind}
		if kind == models.KindLanguage {
			detected := l.detector.Detect(doc.Text)
			result.Language = &detected
		} else {
			scored := sentiment.Analyze(doc.Text)
			result.Sentiment = &scored
		}
		results = append(results, result)
	}
	return results, nil
}
