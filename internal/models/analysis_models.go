package models

import (
	"fmt"
	"strings"
)

// Kind selects which text analysis capability a batch is sent to.
type Kind string

const (
	KindSentiment      Kind = "sentiment"
	KindOpinionMining  Kind = "opinion-mining"
	KindEntities       Kind = "entities"
	KindLinkedEntities Kind = "linked-entities"
	KindLanguage       Kind = "language-detection"
	KindKeyPhrases     Kind = "key-phrases"
)

// Kinds lists every operation in the order the demo runs them.
var Kinds = []Kind{
	KindSentiment,
	KindOpinionMining,
	KindEntities,
	KindLinkedEntities,
	KindLanguage,
	KindKeyPhrases,
}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind accepts the canonical names plus a few short aliases.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sentiment":
		return KindSentiment, nil
	case "opinion-mining", "opinions":
		return KindOpinionMining, nil
	case "entities":
		return KindEntities, nil
	case "linked-entities", "linked":
		return KindLinkedEntities, nil
	case "language-detection", "language":
		return KindLanguage, nil
	case "key-phrases", "keyphrases":
		return KindKeyPhrases, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
}

type Document struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type Options struct {
	Language             string `json:"language,omitempty"`
	CountryHint          string `json:"country_hint,omitempty"`
	IncludeOpinionMining bool   `json:"include_opinion_mining,omitempty"`
	ModelVersion         string `json:"model_version,omitempty"`
}

// MinesOpinions reports whether a sentiment batch should request opinions.
func (o Options) MinesOpinions(kind Kind) bool {
	switch kind {
	case KindOpinionMining:
		return true
	case KindSentiment:
		return o.IncludeOpinionMining
	default:
		return false
	}
}

// Result is the outcome for one document. Error is set on failure; otherwise
// the payload field matching Kind is populated.
type Result struct {
	ID       string         `json:"id"`
	Kind     Kind           `json:"kind"`
	Error    *DocumentError `json:"error,omitempty"`
	Warnings []Warning      `json:"warnings,omitempty"`

	Sentiment      *DocumentSentiment `json:"sentiment,omitempty"`
	Entities       []Entity           `json:"entities,omitempty"`
	LinkedEntities []LinkedEntity     `json:"linked_entities,omitempty"`
	Language       *DetectedLanguage  `json:"language,omitempty"`
	KeyPhrases     []string           `json:"key_phrases,omitempty"`
}

func (r Result) Failed() bool {
	return r.Error != nil
}

// Failure builds a failed result for a document.
func Failure(kind Kind, id, code, message string) Result {
	return Result{
		ID:    id,
		Kind:  kind,
		Error: &DocumentError{Code: code, Message: message},
	}
}

type DocumentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DocumentError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
)

type ConfidenceScores struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

func (s ConfidenceScores) Sum() float64 {
	return s.Positive + s.Neutral + s.Negative
}

type DocumentSentiment struct {
	Label     string              `json:"label"`
	Scores    ConfidenceScores    `json:"scores"`
	Sentences []SentenceSentiment `json:"sentences"`
}

type SentenceSentiment struct {
	Text     string           `json:"text"`
	Label    string           `json:"label"`
	Scores   ConfidenceScores `json:"scores"`
	Offset   int              `json:"offset"`
	Length   int              `json:"length"`
	Opinions []Opinion        `json:"opinions,omitempty"`
}

// Opinion ties a target (for example "servicio") to the assessments made about it.
type Opinion struct {
	Target      OpinionTarget `json:"target"`
	Assessments []Assessment  `json:"assessments"`
}

type OpinionTarget struct {
	Text   string           `json:"text"`
	Label  string           `json:"label"`
	Scores ConfidenceScores `json:"scores"`
	Offset int              `json:"offset"`
	Length int              `json:"length"`
}

type Assessment struct {
	Text      string           `json:"text"`
	Label     string           `json:"label"`
	Scores    ConfidenceScores `json:"scores"`
	Offset    int              `json:"offset"`
	Length    int              `json:"length"`
	IsNegated bool             `json:"is_negated"`
}

type Entity struct {
	Text        string  `json:"text"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory,omitempty"`
	Offset      int     `json:"offset"`
	Length      int     `json:"length"`
	Score       float64 `json:"score"`
}

type LinkedEntity struct {
	Name         string        `json:"name"`
	URL          string        `json:"url"`
	DataSource   string        `json:"data_source"`
	DataSourceID string        `json:"data_source_id,omitempty"`
	Language     string        `json:"language,omitempty"`
	Matches      []EntityMatch `json:"matches"`
}

type EntityMatch struct {
	Text   string  `json:"text"`
	Offset int     `json:"offset"`
	Length int     `json:"length"`
	Score  float64 `json:"score"`
}

type DetectedLanguage struct {
	Name    string  `json:"name"`
	ISO6391 string  `json:"iso6391"`
	Score   float64 `json:"score"`
}
