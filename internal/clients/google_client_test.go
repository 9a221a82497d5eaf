package clients

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"cloud.google.com/go/language/apiv2/languagepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/spacesedan/textflow/internal/analysis"
	"github.com/spacesedan/textflow/internal/models"
)

type fakeLanguageAPI struct {
	err       error
	requests  []*languagepb.Document
	encodings []languagepb.EncodingType
}

// offset reports where sub starts in text, in the unit the encoding asks for.
func offset(text, sub string, enc languagepb.EncodingType) int32 {
	idx := strings.Index(text, sub)
	if enc == languagepb.EncodingType_UTF32 {
		return int32(utf8.RuneCountInString(text[:idx]))
	}
	return int32(idx)
}

func (f *fakeLanguageAPI) AnalyzeSentiment(_ context.Context, req *languagepb.AnalyzeSentimentRequest) (*languagepb.AnalyzeSentimentResponse, error) {
	f.requests = append(f.requests, req.GetDocument())
	if f.err != nil {
		return nil, f.err
	}
	text := req.GetDocument().GetContent()
	if strings.Contains(text, "XX") {
		return nil, status.Error(codes.InvalidArgument, "The language xx is not supported")
	}

	score := float32(0.1)
	if strings.Contains(text, "no vale") {
		score = -0.8
	}
	code := "es"
	if strings.Contains(text, "English") {
		code = "en"
	}
	return &languagepb.AnalyzeSentimentResponse{
		DocumentSentiment: &languagepb.Sentiment{Score: score, Magnitude: 0.8},
		LanguageCode:      code,
		LanguageSupported: true,
		Sentences: []*languagepb.Sentence{{
			Text:      &languagepb.TextSpan{Content: text},
			Sentiment: &languagepb.Sentiment{Score: score, Magnitude: 0.8},
		}},
	}, nil
}

func (f *fakeLanguageAPI) AnalyzeEntities(_ context.Context, req *languagepb.AnalyzeEntitiesRequest) (*languagepb.AnalyzeEntitiesResponse, error) {
	f.requests = append(f.requests, req.GetDocument())
	f.encodings = append(f.encodings, req.GetEncodingType())
	if f.err != nil {
		return nil, f.err
	}
	resp := &languagepb.AnalyzeEntitiesResponse{LanguageCode: "es"}
	text := req.GetDocument().GetContent()
	if strings.Contains(text, "INEI") {
		resp.Entities = append(resp.Entities, &languagepb.Entity{
			Name: "INEI",
			Type: languagepb.Entity_ORGANIZATION,
			Mentions: []*languagepb.EntityMention{{
				Text:        &languagepb.TextSpan{Content: "INEI", BeginOffset: offset(text, "INEI", req.GetEncodingType())},
				Probability: 0.9,
			}},
		})
	}
	if strings.Contains(text, "Perú") {
		resp.Entities = append(resp.Entities, &languagepb.Entity{
			Name:     "Perú",
			Type:     languagepb.Entity_LOCATION,
			Metadata: map[string]string{"wikipedia_url": "https://es.wikipedia.org/wiki/Perú", "mid": "/m/016wzw"},
			Mentions: []*languagepb.EntityMention{{
				Text:        &languagepb.TextSpan{Content: "Perú", BeginOffset: offset(text, "Perú", req.GetEncodingType())},
				Probability: 0.8,
			}},
		})
	}
	return resp, nil
}

func newTestGoogle(api languageAPI) *analysis.Invoker {
	return analysis.NewInvoker(&GoogleLanguageClient{api: api})
}

func TestGoogleSentiment(t *testing.T) {
	t.Parallel()

	api := &fakeLanguageAPI{}
	inv := newTestGoogle(api)
	docs := []models.Document{
		{Text: "Existe una necesidad de mejorar la calidad de vida."},
		{Text: "El servicio fue demasiado rápido, no vale lo que pagué."},
	}

	results, err := inv.Invoke(context.Background(), models.KindSentiment, docs, models.Options{Language: "es"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if results[0].Sentiment.Label != models.SentimentNeutral {
		t.Fatalf("expected neutral, got %q", results[0].Sentiment.Label)
	}
	if results[1].Sentiment.Label != models.SentimentNegative {
		t.Fatalf("expected negative, got %q", results[1].Sentiment.Label)
	}
	for _, r := range results {
		if math.Abs(r.Sentiment.Scores.Sum()-1) > 1e-6 {
			t.Fatalf("scores should sum to 1, got %v", r.Sentiment.Scores.Sum())
		}
		if len(r.Sentiment.Sentences) != 1 {
			t.Fatalf("expected sentence breakdown")
		}
	}
	if api.requests[0].GetLanguageCode() != "es" {
		t.Fatalf("expected batch language on request, got %q", api.requests[0].GetLanguageCode())
	}
}

func TestGoogleEntitiesAndLinkedEntities(t *testing.T) {
	t.Parallel()

	inv := newTestGoogle(&fakeLanguageAPI{})
	docs := []models.Document{
		{Text: "El incremento de obesidad en el Perú es alarmante, según el INEI."},
		{Text: "Una crisis de salud alimentaria."},
	}

	results, err := inv.Invoke(context.Background(), models.KindEntities, docs, models.Options{Language: "es"})
	if err != nil {
		t.Fatalf("invoke entities: %v", err)
	}
	if len(results[0].Entities) != 2 || results[0].Entities[0].Category != "Organization" {
		t.Fatalf("unexpected entities %+v", results[0].Entities)
	}
	if results[1].Failed() || len(results[1].Entities) != 0 {
		t.Fatalf("expected empty success for second document, got %+v", results[1])
	}

	linked, err := inv.Invoke(context.Background(), models.KindLinkedEntities, docs, models.Options{Language: "es"})
	if err != nil {
		t.Fatalf("invoke linked: %v", err)
	}
	if len(linked[0].LinkedEntities) != 1 {
		t.Fatalf("only entities with a wikipedia url are linked, got %+v", linked[0].LinkedEntities)
	}
	le := linked[0].LinkedEntities[0]
	if le.DataSource != WIKIPEDIA_SOURCE || le.DataSourceID != "/m/016wzw" || len(le.Matches) != 1 {
		t.Fatalf("unexpected linked entity %+v", le)
	}
}

func TestGoogleOffsetsCountCodePoints(t *testing.T) {
	t.Parallel()

	api := &fakeLanguageAPI{}
	inv := newTestGoogle(api)
	text := "Según el Perú, la población crece y el INEI lo confirma."
	docs := []models.Document{{Text: text}}

	entities, err := inv.Invoke(context.Background(), models.KindEntities, docs, models.Options{Language: "es"})
	if err != nil {
		t.Fatalf("invoke entities: %v", err)
	}
	linked, err := inv.Invoke(context.Background(), models.KindLinkedEntities, docs, models.Options{Language: "es"})
	if err != nil {
		t.Fatalf("invoke linked: %v", err)
	}

	for _, enc := range api.encodings {
		if enc != languagepb.EncodingType_UTF32 {
			t.Fatalf("expected UTF32 encoding, got %v", enc)
		}
	}

	inei := entities[0].Entities[0]
	if want := utf8.RuneCountInString(text[:strings.Index(text, "INEI")]); inei.Offset != want || inei.Length != 4 {
		t.Fatalf("INEI at %d+%d, want %d+4", inei.Offset, inei.Length, want)
	}
	match := linked[0].LinkedEntities[0].Matches[0]
	if match.Offset != 9 || match.Length != 4 {
		t.Fatalf("Perú at %d+%d, want 9+4", match.Offset, match.Length)
	}
}

func TestGoogleLanguageDetection(t *testing.T) {
	t.Parallel()

	api := &fakeLanguageAPI{}
	inv := newTestGoogle(api)
	docs := []models.Document{
		{Text: "Este es un documento escrito en español."},
		{Text: "This is a document written in English."},
	}

	results, err := inv.Invoke(context.Background(), models.KindLanguage, docs, models.Options{})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if results[0].Language.ISO6391 != "es" || results[1].Language.ISO6391 != "en" {
		t.Fatalf("unexpected languages %+v %+v", results[0].Language, results[1].Language)
	}
	if results[0].Language.Name != "Spanish" || results[1].Language.Name != "English" {
		t.Fatalf("expected display names, got %q and %q", results[0].Language.Name, results[1].Language.Name)
	}
	for _, req := range api.requests {
		if req.GetLanguageCode() != "" {
			t.Fatalf("language detection must not pin a language")
		}
	}
}

func TestGooglePerDocumentErrors(t *testing.T) {
	t.Parallel()

	inv := newTestGoogle(&fakeLanguageAPI{})
	docs := []models.Document{
		{Text: "Un documento normal."},
		{Text: "XX no soportado"},
		{Text: ""},
		{Text: "Otro documento normal."},
	}

	results, err := inv.Invoke(context.Background(), models.KindSentiment, docs, models.Options{Language: "es"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if results[0].Failed() || results[3].Failed() {
		t.Fatalf("siblings should succeed")
	}
	if !results[1].Failed() || results[1].Error.Code != codes.InvalidArgument.String() {
		t.Fatalf("expected InvalidArgument failure, got %+v", results[1])
	}
	if !results[2].Failed() || results[2].Error.Code != models.CodeInvalidDocument {
		t.Fatalf("expected InvalidDocument failure, got %+v", results[2])
	}
}

func TestGoogleTransportErrorFailsBatch(t *testing.T) {
	t.Parallel()

	inv := newTestGoogle(&fakeLanguageAPI{err: status.Error(codes.Unauthenticated, "bad credentials")})
	_, err := inv.Invoke(context.Background(), models.KindEntities, []models.Document{{Text: "hola"}}, models.Options{})
	if status.Code(errors.Unwrap(err)) != codes.Unauthenticated {
		t.Fatalf("expected unauthenticated error, got %v", err)
	}
}

func TestGoogleKeyPhrasesUnsupported(t *testing.T) {
	t.Parallel()

	inv := newTestGoogle(&fakeLanguageAPI{})
	_, err := inv.Invoke(context.Background(), models.KindKeyPhrases, []models.Document{{Text: "hola"}}, models.Options{})
	if !errors.Is(err, models.ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestGoogleLabel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score, magnitude float32
		want             string
	}{
		{0.6, 0.6, models.SentimentPositive},
		{-0.4, 0.4, models.SentimentNegative},
		{0.0, 3.2, models.SentimentMixed},
		{0.1, 0.1, models.SentimentNeutral},
	}
	for _, tc := range cases {
		if got := googleLabel(tc.score, tc.magnitude); got != tc.want {
			t.Fatalf("googleLabel(%v, %v) = %q, want %q", tc.score, tc.magnitude, got, tc.want)
		}
	}
}
