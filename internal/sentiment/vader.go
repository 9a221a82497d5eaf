package sentiment

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/textflow/internal/models"
)

const (
	positiveBound = 0.20
	negativeBound = -0.20
)

var (
	analyzer    = govader.NewSentimentIntensityAnalyzer()
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]+>`)
)

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1") // Keep only the text
	return urlPattern.ReplaceAllString(input, "")
}

func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plainText := RemoveLinks(tagPattern.ReplaceAllString(string(output), " "))

	return strings.Join(strings.Fields(plainText), " ")
}

// Label maps a VADER compound score to a sentiment label.
func Label(compound float64) string {
	switch {
	case compound >= positiveBound:
		return models.SentimentPositive
	case compound <= negativeBound:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// Score runs VADER over one piece of text.
func Score(text string) (models.ConfidenceScores, float64) {
	s := analyzer.PolarityScores(ConvertMarkdownToText(text))
	return models.ConfidenceScores{
		Positive: s.Positive,
		Neutral:  s.Neutral,
		Negative: s.Negative,
	}, s.Compound
}

// Analyze scores a document and each of its sentences. A document whose
// sentences lean both positive and negative is labelled mixed.
func Analyze(text string) models.DocumentSentiment {
	spans := SplitSentences(text)
	sentences := make([]models.SentenceSentiment, 0, len(spans))
	var sawPositive, sawNegative bool
	for _, span := range spans {
		scores, compound := Score(span.Text)
		label := Label(compound)
		switch label {
		case models.SentimentPositive:
			sawPositive = true
		case models.SentimentNegative:
			sawNegative = true
		}
		sentences = append(sentences, models.SentenceSentiment{
			Text:   span.Text,
			Label:  label,
			Scores: scores,
			Offset: span.Offset,
			Length: span.Length,
		})
	}

	scores, compound := Score(text)
	label := Label(compound)
	if sawPositive && sawNegative {
		label = models.SentimentMixed
	}

	return models.DocumentSentiment{
		Label:     label,
		Scores:    scores,
		Sentences: sentences,
	}
}

// Span is a sentence with offsets counted in runes.
type Span struct {
	Text   string
	Offset int
	Length int
}

// SplitSentences breaks text after a terminal '.', '!' or '?' that is followed
// by whitespace or the end of the text.
func SplitSentences(text string) []Span {
	runes := []rune(text)
	var spans []Span
	start := 0

	flush := func(end int) {
		s, e := start, end
		for s < e && unicode.IsSpace(runes[s]) {
			s++
		}
		for e > s && unicode.IsSpace(runes[e-1]) {
			e--
		}
		if e > s {
			spans = append(spans, Span{Text: string(runes[s:e]), Offset: s, Length: e - s})
		}
		start = end
	}

	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
			flush(i + 1)
		}
	}
	flush(len(runes))

	return spans
}
