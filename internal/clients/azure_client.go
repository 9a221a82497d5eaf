package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spacesedan/textflow/internal/models"
)

// ServiceError is returned when the service rejects a whole request, for
// example because the key is wrong or the endpoint does not exist.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("service returned status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

type AzureClient struct {
	Client     *http.Client
	Endpoint   string
	Key        string
	APIVersion string
}

// NewAzureClient builds a client for a Text Analytics resource. The http
// client carries no timeout; callers bound requests through their context.
func NewAzureClient(endpoint, key string) (*AzureClient, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid text analytics endpoint %q", endpoint)
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("text analytics key is empty")
	}

	slog.Info("[AzureClient] Initializing Client",
		slog.String("endpoint", endpoint),
		slog.String("api_version", AZURE_API_VERSION))

	return &AzureClient{
		Client:     &http.Client{},
		Endpoint:   endpoint,
		Key:        key,
		APIVersion: AZURE_API_VERSION,
	}, nil
}

func (a *AzureClient) Name() string {
	return BACKEND_AZURE
}

func (a *AzureClient) Analyze(ctx context.Context, kind models.Kind, docs []models.Document, opts models.Options) ([]models.Result, error) {
	switch kind {
	case models.KindSentiment, models.KindOpinionMining:
		return a.analyzeSentiment(ctx, kind, docs, opts)
	case models.KindEntities:
		return a.recognizeEntities(ctx, docs, opts)
	case models.KindLinkedEntities:
		return a.recognizeLinkedEntities(ctx, docs, opts)
	case models.KindLanguage:
		return a.detectLanguage(ctx, docs, opts)
	case models.KindKeyPhrases:
		return a.extractKeyPhrases(ctx, docs, opts)
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedKind, kind)
	}
}

func (a *AzureClient) analyzeSentiment(ctx context.Context, kind models.Kind, docs []models.Document, opts models.Options) ([]models.Result, error) {
	query := a.query(opts, true)
	if opts.MinesOpinions(kind) {
		query.Set("opinionMining", "true")
	}

	var resp models.AzureSentimentResponse
	if err := a.postJSON(ctx, "/sentiment", query, textDocuments(docs), &resp); err != nil {
		return nil, err
	}

	results := make([]models.Result, 0, len(resp.Documents)+len(resp.Errors))
	for _, doc := range resp.Documents {
		sentences := make([]models.SentenceSentiment, 0, len(doc.Sentences))
		for _, s := range doc.Sentences {
			sentences = append(sentences, models.SentenceSentiment{
				Text:     s.Text,
				Label:    s.Sentiment,
				Scores:   scores(s.ConfidenceScores),
				Offset:   s.Offset,
				Length:   s.Length,
				Opinions: opinions(s, doc.Sentences),
			})
		}
		results = append(results, models.Result{
			ID:       doc.ID,
			Warnings: warnings(doc.Warnings),
			Sentiment: &models.DocumentSentiment{
				Label:     doc.Sentiment,
				Scores:    scores(doc.ConfidenceScores),
				Sentences: sentences,
			},
		})
	}
	return append(results, documentErrors(kind, resp.Errors)...), nil
}

func (a *AzureClient) recognizeEntities(ctx context.Context, docs []models.Document, opts models.Options) ([]models.Result, error) {
	var resp models.AzureEntitiesResponse
	if err := a.postJSON(ctx, "/entities/recognition/general", a.query(opts, true), textDocuments(docs), &resp); err != nil {
		return nil, err
	}

	results := make([]models.Result, 0, len(resp.Documents)+len(resp.Errors))
	for _, doc := range resp.Documents {
		entities := make([]models.Entity, 0, len(doc.Entities))
		for _, e := range doc.Entities {
			entities = append(entities, models.Entity{
				Text:        e.Text,
				Category:    e.Category,
				Subcategory: e.Subcategory,
				Offset:      e.Offset,
				Length:      e.Length,
				Score:       e.ConfidenceScore,
			})
		}
		results = append(results, models.Result{
			ID:       doc.ID,
			Warnings: warnings(doc.Warnings),
			Entities: entities,
		})
	}
	return append(results, documentErrors(models.KindEntities, resp.Errors)...), nil
}

func (a *AzureClient) recognizeLinkedEntities(ctx context.Context, docs []models.Document, opts models.Options) ([]models.Result, error) {
	var resp models.AzureLinkedEntitiesResponse
	if err := a.postJSON(ctx, "/entities/linking", a.query(opts, true), textDocuments(docs), &resp); err != nil {
		return nil, err
	}

	results := make([]models.Result, 0, len(resp.Documents)+len(resp.Errors))
	for _, doc := range resp.Documents {
		linked := make([]models.LinkedEntity, 0, len(doc.Entities))
		for _, e := range doc.Entities {
			matches := make([]models.EntityMatch, 0, len(e.Matches))
			for _, m := range e.Matches {
				matches = append(matches, models.EntityMatch{
					Text:   m.Text,
					Offset: m.Offset,
					Length: m.Length,
					Score:  m.ConfidenceScore,
				})
			}
			linked = append(linked, models.LinkedEntity{
				Name:         e.Name,
				URL:          e.URL,
				DataSource:   e.DataSource,
				DataSourceID: e.ID,
				Language:     e.Language,
				Matches:      matches,
			})
		}
		results = append(results, models.Result{
			ID:             doc.ID,
			Warnings:       warnings(doc.Warnings),
			LinkedEntities: linked,
		})
	}
	return append(results, documentErrors(models.KindLinkedEntities, resp.Errors)...), nil
}

func (a *AzureClient) detectLanguage(ctx context.Context, docs []models.Document, opts models.Options) ([]models.Result, error) {
	hint := strings.TrimSpace(opts.CountryHint)
	if strings.EqualFold(hint, "none") {
		hint = ""
	}

	body := models.AzureBatchRequest{Documents: make([]models.AzureDocument, 0, len(docs))}
	for _, doc := range docs {
		body.Documents = append(body.Documents, models.AzureDocument{
			ID:          doc.ID,
			Text:        doc.Text,
			CountryHint: hint,
		})
	}

	var resp models.AzureLanguageResponse
	if err := a.postJSON(ctx, "/languages", a.query(opts, false), body, &resp); err != nil {
		return nil, err
	}

	results := make([]models.Result, 0, len(resp.Documents)+len(resp.Errors))
	for _, doc := range resp.Documents {
		results = append(results, models.Result{
			ID:       doc.ID,
			Warnings: warnings(doc.Warnings),
			Language: &models.DetectedLanguage{
				Name:    doc.DetectedLanguage.Name,
				ISO6391: doc.DetectedLanguage.ISO6391Name,
				Score:   doc.DetectedLanguage.ConfidenceScore,
			},
		})
	}
	return append(results, documentErrors(models.KindLanguage, resp.Errors)...), nil
}

func (a *AzureClient) extractKeyPhrases(ctx context.Context, docs []models.Document, opts models.Options) ([]models.Result, error) {
	var resp models.AzureKeyPhrasesResponse
	if err := a.postJSON(ctx, "/keyPhrases", a.query(opts, false), textDocuments(docs), &resp); err != nil {
		return nil, err
	}

	results := make([]models.Result, 0, len(resp.Documents)+len(resp.Errors))
	for _, doc := range resp.Documents {
		phrases := doc.KeyPhrases
		if phrases == nil {
			phrases = []string{}
		}
		results = append(results, models.Result{
			ID:         doc.ID,
			Warnings:   warnings(doc.Warnings),
			KeyPhrases: phrases,
		})
	}
	return append(results, documentErrors(models.KindKeyPhrases, resp.Errors)...), nil
}

func (a *AzureClient) query(opts models.Options, offsets bool) url.Values {
	query := url.Values{}
	if opts.ModelVersion != "" {
		query.Set("model-version", opts.ModelVersion)
	}
	if offsets {
		query.Set("stringIndexType", AZURE_STRING_INDEXES)
	}
	return query
}

// postJSON sends a single request with no retries. Any non-2xx status fails
// the whole batch.
func (a *AzureClient) postJSON(ctx context.Context, path string, query url.Values, input interface{}, output interface{}) error {
	endpoint := a.Endpoint + "/text/analytics/" + a.APIVersion + path
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set(AZURE_KEY_HEADER, a.Key)

	start := time.Now()
	resp, err := a.Client.Do(req)
	if err != nil {
		slog.Error("[AzureClient] Request failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		svcErr := &ServiceError{StatusCode: resp.StatusCode}
		var envelope models.AzureErrorResponse
		if json.Unmarshal(respBody, &envelope) == nil {
			svcErr.Code = envelope.Error.Code
			svcErr.Message = envelope.Error.Message
		}
		slog.Error("[AzureClient] Service rejected request",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			getPreview(respBody))
		return svcErr
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[AzureClient] Failed to unmarshal response",
			slog.String("path", path),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	slog.Debug("[AzureClient] Request successful",
		slog.String("path", path),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func textDocuments(docs []models.Document) models.AzureBatchRequest {
	body := models.AzureBatchRequest{Documents: make([]models.AzureDocument, 0, len(docs))}
	for _, doc := range docs {
		body.Documents = append(body.Documents, models.AzureDocument{
			ID:       doc.ID,
			Text:     doc.Text,
			Language: doc.Language,
		})
	}
	return body
}

func documentErrors(kind models.Kind, errs []models.AzureDocumentError) []models.Result {
	results := make([]models.Result, 0, len(errs))
	for _, e := range errs {
		// The inner error names the actual problem ("InvalidDocument"), the
		// outer one is usually a generic "InvalidArgument".
		detail := e.Error
		if detail.InnerError != nil {
			detail = *detail.InnerError
		}
		results = append(results, models.Failure(kind, e.ID, detail.Code, detail.Message))
	}
	return results
}

// opinions resolves each target's assessment references. Refs look like
// "#/documents/0/sentences/1/assessments/2".
func opinions(sentence models.AzureSentence, all []models.AzureSentence) []models.Opinion {
	if len(sentence.Targets) == 0 {
		return nil
	}

	out := make([]models.Opinion, 0, len(sentence.Targets))
	for _, t := range sentence.Targets {
		op := models.Opinion{
			Target: models.OpinionTarget{
				Text:   t.Text,
				Label:  t.Sentiment,
				Scores: scores(t.ConfidenceScores),
				Offset: t.Offset,
				Length: t.Length,
			},
			Assessments: []models.Assessment{},
		}
		for _, rel := range t.Relations {
			if rel.RelationType != "assessment" {
				continue
			}
			sIdx, aIdx, ok := parseAssessmentRef(rel.Ref)
			if !ok || sIdx >= len(all) || aIdx >= len(all[sIdx].Assessments) {
				slog.Warn("[AzureClient] Unresolvable assessment reference",
					slog.String("ref", rel.Ref))
				continue
			}
			as := all[sIdx].Assessments[aIdx]
			op.Assessments = append(op.Assessments, models.Assessment{
				Text:      as.Text,
				Label:     as.Sentiment,
				Scores:    scores(as.ConfidenceScores),
				Offset:    as.Offset,
				Length:    as.Length,
				IsNegated: as.IsNegated,
			})
		}
		out = append(out, op)
	}
	return out
}

func parseAssessmentRef(ref string) (sentence, assessment int, ok bool) {
	parts := strings.Split(strings.TrimPrefix(ref, "#/"), "/")
	if len(parts) != 6 || parts[2] != "sentences" || parts[4] != "assessments" {
		return 0, 0, false
	}
	s, err := strconv.Atoi(parts[3])
	if err != nil || s < 0 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(parts[5])
	if err != nil || a < 0 {
		return 0, 0, false
	}
	return s, a, true
}

func scores(s models.AzureConfidenceScores) models.ConfidenceScores {
	return models.ConfidenceScores{
		Positive: s.Positive,
		Neutral:  s.Neutral,
		Negative: s.Negative,
	}
}

func warnings(ws []models.AzureWarning) []models.Warning {
	if len(ws) == 0 {
		return nil
	}
	out := make([]models.Warning, 0, len(ws))
	for _, w := range ws {
		out = append(out, models.Warning{Code: w.Code, Message: w.Message})
	}
	return out
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}
