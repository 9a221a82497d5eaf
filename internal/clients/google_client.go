package clients

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	language "cloud.google.com/go/language/apiv2"
	"cloud.google.com/go/language/apiv2/languagepb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/spacesedan/textflow/internal/langdetect"
	"github.com/spacesedan/textflow/internal/models"
)

const (
	GOOGLE_LANGUAGE_SCOPE = "https://www.googleapis.com/auth/cloud-language"
	WIKIPEDIA_SOURCE      = "Wikipedia"

	// Document scores at or beyond these bounds get a polar label.
	googlePositiveBound = 0.25
	googleNegativeBound = -0.25
	// A near-zero score with at least this magnitude means the text holds
	// strong sentiment in both directions.
	googleMixedMagnitude = 1.0
)

// languageAPI is the subset of the Natural Language client in use.
type languageAPI interface {
	AnalyzeSentiment(ctx context.Context, req *languagepb.AnalyzeSentimentRequest) (*languagepb.AnalyzeSentimentResponse, error)
	AnalyzeEntities(ctx context.Context, req *languagepb.AnalyzeEntitiesRequest) (*languagepb.AnalyzeEntitiesResponse, error)
}

type apiAdapter struct {
	client *language.Client
}

func (a apiAdapter) AnalyzeSentiment(ctx context.Context, req *languagepb.AnalyzeSentimentRequest) (*languagepb.AnalyzeSentimentResponse, error) {
	return a.client.AnalyzeSentiment(ctx, req)
}

func (a apiAdapter) AnalyzeEntities(ctx context.Context, req *languagepb.AnalyzeEntitiesRequest) (*languagepb.AnalyzeEntitiesResponse, error) {
	return a.client.AnalyzeEntities(ctx, req)
}

// GoogleLanguageClient serves the analysis kinds Cloud Natural Language can
// answer. The API takes one document per request, so a batch becomes a
// sequence of calls. Requests use UTF-32 encoding so offsets count code
// points, like the other backends.
type GoogleLanguageClient struct {
	api    languageAPI
	closer func() error
}

// NewGoogleLanguageClient builds a client from base64 encoded service account
// JSON, or from application default credentials when encodedCreds is empty.
func NewGoogleLanguageClient(ctx context.Context, encodedCreds string) (*GoogleLanguageClient, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(encodedCreds) != "" {
		raw, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode natural language credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, raw, GOOGLE_LANGUAGE_SCOPE)
		if err != nil {
			return nil, fmt.Errorf("failed to parse natural language credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	opts = append(opts, option.WithUserAgent(USER_AGENT))

	client, err := language.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create natural language client: %w", err)
	}

	slog.Info("[GoogleLanguageClient] Initialized Client",
		slog.Bool("explicit_credentials", len(opts) > 1))

	return &GoogleLanguageClient{
		api:    apiAdapter{client: client},
		closer: client.Close,
	}, nil
}

func (g *GoogleLanguageClient) Name() string {
	return BACKEND_GOOGLE
}

func (g *GoogleLanguageClient) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}

func (g *GoogleLanguageClient) Analyze(ctx context.Context, kind models.Kind, docs []models.Document, opts models.Options) ([]models.Result, error) {
	var analyze func(context.Context, models.Document) (models.Result, error)
	switch kind {
	case models.KindSentiment, models.KindOpinionMining:
		analyze = g.sentiment
	case models.KindEntities:
		analyze = g.entities
	case models.KindLinkedEntities:
		analyze = g.linkedEntities
	case models.KindLanguage:
		analyze = g.language
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedKind, kind)
	}

	results := make([]models.Result, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			results = append(results, models.Failure(kind, doc.ID, models.CodeInvalidDocument, "Document text is empty."))
			continue
		}

		result, err := analyze(ctx, doc)
		if err != nil {
			if st, ok := status.FromError(err); ok && st.Code() == codes.InvalidArgument {
				results = append(results, models.Failure(kind, doc.ID, st.Code().String(), st.Message()))
				continue
			}
			return nil, err
		}
		result.ID = doc.ID
		results = append(results, result)
	}
	return results, nil
}

func (g *GoogleLanguageClient) sentiment(ctx context.Context, doc models.Document) (models.Result, error) {
	resp, err := g.api.AnalyzeSentiment(ctx, &languagepb.AnalyzeSentimentRequest{
		Document:     plainText(doc, doc.Language),
		EncodingType: languagepb.EncodingType_UTF32,
	})
	if err != nil {
		return models.Result{}, err
	}
	logRaw("AnalyzeSentiment", resp)

	sentences := make([]models.SentenceSentiment, 0, len(resp.GetSentences()))
	for _, s := range resp.GetSentences() {
		score := s.GetSentiment().GetScore()
		magnitude := s.GetSentiment().GetMagnitude()
		sentences = append(sentences, models.SentenceSentiment{
			Text:   s.GetText().GetContent(),
			Label:  googleLabel(score, magnitude),
			Scores: googleScores(score),
			Offset: int(s.GetText().GetBeginOffset()),
			Length: utf8.RuneCountInString(s.GetText().GetContent()),
		})
	}

	score := resp.GetDocumentSentiment().GetScore()
	magnitude := resp.GetDocumentSentiment().GetMagnitude()
	return models.Result{
		Sentiment: &models.DocumentSentiment{
			Label:     googleLabel(score, magnitude),
			Scores:    googleScores(score),
			Sentences: sentences,
		},
	}, nil
}

func (g *GoogleLanguageClient) entities(ctx context.Context, doc models.Document) (models.Result, error) {
	resp, err := g.analyzeEntities(ctx, doc)
	if err != nil {
		return models.Result{}, err
	}

	entities := []models.Entity{}
	for _, e := range resp.GetEntities() {
		for _, m := range e.GetMentions() {
			entities = append(entities, models.Entity{
				Text:     m.GetText().GetContent(),
				Category: titleCase(e.GetType().String()),
				Offset:   int(m.GetText().GetBeginOffset()),
				Length:   utf8.RuneCountInString(m.GetText().GetContent()),
				Score:    float64(m.GetProbability()),
			})
		}
	}
	return models.Result{Entities: entities}, nil
}

func (g *GoogleLanguageClient) linkedEntities(ctx context.Context, doc models.Document) (models.Result, error) {
	resp, err := g.analyzeEntities(ctx, doc)
	if err != nil {
		return models.Result{}, err
	}

	linked := []models.LinkedEntity{}
	for _, e := range resp.GetEntities() {
		wikiURL := e.GetMetadata()["wikipedia_url"]
		if wikiURL == "" {
			continue
		}
		matches := make([]models.EntityMatch, 0, len(e.GetMentions()))
		for _, m := range e.GetMentions() {
			matches = append(matches, models.EntityMatch{
				Text:   m.GetText().GetContent(),
				Offset: int(m.GetText().GetBeginOffset()),
				Length: utf8.RuneCountInString(m.GetText().GetContent()),
				Score:  float64(m.GetProbability()),
			})
		}
		linked = append(linked, models.LinkedEntity{
			Name:         e.GetName(),
			URL:          wikiURL,
			DataSource:   WIKIPEDIA_SOURCE,
			DataSourceID: e.GetMetadata()["mid"],
			Language:     resp.GetLanguageCode(),
			Matches:      matches,
		})
	}
	return models.Result{LinkedEntities: linked}, nil
}

// language relies on the language the API reports for the document. The API
// gives no confidence for it, so a supported language scores 1 and an
// unsupported one 0.
func (g *GoogleLanguageClient) language(ctx context.Context, doc models.Document) (models.Result, error) {
	resp, err := g.api.AnalyzeSentiment(ctx, &languagepb.AnalyzeSentimentRequest{
		Document:     plainText(doc, ""),
		EncodingType: languagepb.EncodingType_UTF32,
	})
	if err != nil {
		return models.Result{}, err
	}
	logRaw("AnalyzeSentiment", resp)

	code := strings.ToLower(resp.GetLanguageCode())
	if dash := strings.IndexByte(code, '-'); dash >= 0 {
		code = code[:dash]
	}
	detected := &models.DetectedLanguage{Name: langdetect.Unknown, ISO6391: langdetect.Unknown}
	if code != "" {
		detected.Name = langdetect.NameFromISO(code)
		if detected.Name == langdetect.Unknown {
			detected.Name = code
		}
		detected.ISO6391 = code
		if resp.GetLanguageSupported() {
			detected.Score = 1
		}
	}
	return models.Result{Language: detected}, nil
}

func (g *GoogleLanguageClient) analyzeEntities(ctx context.Context, doc models.Document) (*languagepb.AnalyzeEntitiesResponse, error) {
	resp, err := g.api.AnalyzeEntities(ctx, &languagepb.AnalyzeEntitiesRequest{
		Document:     plainText(doc, doc.Language),
		EncodingType: languagepb.EncodingType_UTF32,
	})
	if err != nil {
		return nil, err
	}
	logRaw("AnalyzeEntities", resp)
	return resp, nil
}

func plainText(doc models.Document, languageCode string) *languagepb.Document {
	return &languagepb.Document{
		Source: &languagepb.Document_Content{
			Content: doc.Text,
		},
		Type:         languagepb.Document_PLAIN_TEXT,
		LanguageCode: languageCode,
	}
}

func googleLabel(score, magnitude float32) string {
	switch {
	case score >= googlePositiveBound:
		return models.SentimentPositive
	case score <= googleNegativeBound:
		return models.SentimentNegative
	case magnitude >= googleMixedMagnitude:
		return models.SentimentMixed
	default:
		return models.SentimentNeutral
	}
}

// googleScores spreads a score in [-1, 1] over three confidences summing to 1.
func googleScores(score float32) models.ConfidenceScores {
	s := math.Max(-1, math.Min(1, float64(score)))
	return models.ConfidenceScores{
		Positive: math.Max(s, 0),
		Negative: math.Max(-s, 0),
		Neutral:  1 - math.Abs(s),
	}
}

func titleCase(raw string) string {
	lower := strings.ToLower(strings.ReplaceAll(raw, "_", " "))
	if lower == "" {
		return ""
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func logRaw(method string, msg proto.Message) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	raw, err := protojson.Marshal(msg)
	if err != nil {
		return
	}
	slog.Debug("[GoogleLanguageClient] Raw response",
		slog.String("method", method),
		slog.String("body", string(raw)))
}
