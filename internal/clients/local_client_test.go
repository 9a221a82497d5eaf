package clients

import (
	"context"
	"errors"
	"reflect"
	"testing"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/spacesedan/textflow/internal/analysis"
	"github.com/spacesedan/textflow/internal/langdetect"
	"github.com/spacesedan/textflow/internal/models"
)

func newTestLocal() *analysis.Invoker {
	return analysis.NewInvoker(NewLocalClient(langdetect.New(lingua.Spanish, lingua.English, lingua.Portuguese)))
}

func TestLocalLanguageDetection(t *testing.T) {
	t.Parallel()

	inv := newTestLocal()
	docs := []models.Document{
		{Text: "Este es un documento escrito en español."},
		{Text: "This is a document written in English."},
		{Text: "Isto é um documento escrito em português."},
	}

	results, err := inv.Invoke(context.Background(), models.KindLanguage, docs, models.Options{CountryHint: "none"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	for i, want := range []string{"es", "en", "pt"} {
		if results[i].Failed() || results[i].Language.ISO6391 != want {
			t.Fatalf("document %d: expected %s, got %+v", i, want, results[i])
		}
	}
}

func TestLocalSentimentIsolatesEmptyDocument(t *testing.T) {
	t.Parallel()

	inv := newTestLocal()
	docs := []models.Document{
		{Text: "I love this, it is wonderful!"},
		{Text: "   "},
		{Text: "This is terrible and awful."},
	}

	results, err := inv.Invoke(context.Background(), models.KindSentiment, docs, models.Options{Language: "en"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if results[0].Sentiment.Label != models.SentimentPositive {
		t.Fatalf("expected positive, got %q", results[0].Sentiment.Label)
	}
	if !results[1].Failed() || results[1].Error.Code != models.CodeInvalidDocument {
		t.Fatalf("expected InvalidDocument, got %+v", results[1])
	}
	if results[2].Sentiment.Label != models.SentimentNegative {
		t.Fatalf("expected negative, got %q", results[2].Sentiment.Label)
	}
}

func TestLocalIsDeterministic(t *testing.T) {
	t.Parallel()

	inv := newTestLocal()
	docs := []models.Document{{Text: "La aplicación tiene muchas funciones, pero es fácil de usar."}}

	first, err := inv.Invoke(context.Background(), models.KindOpinionMining, docs, models.Options{Language: "es"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	second, err := inv.Invoke(context.Background(), models.KindOpinionMining, docs, models.Options{Language: "es"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results")
	}
}

func TestLocalUnsupportedKinds(t *testing.T) {
	t.Parallel()

	inv := newTestLocal()
	for _, kind := range []models.Kind{models.KindEntities, models.KindLinkedEntities, models.KindKeyPhrases} {
		_, err := inv.Invoke(context.Background(), kind, []models.Document{{Text: "hola"}}, models.Options{})
		if !errors.Is(err, models.ErrUnsupportedKind) {
			t.Fatalf("%s: expected ErrUnsupportedKind, got %v", kind, err)
		}
	}
}
