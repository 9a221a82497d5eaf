package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/spacesedan/textflow/internal/models"
)

// Renderer prints results in a human readable layout. Successful results go
// to Out, per-document failures to Err.
type Renderer struct {
	Out io.Writer
	Err io.Writer
}

func New(out, errOut io.Writer) Renderer {
	return Renderer{Out: out, Err: errOut}
}

// Render prints results for one operation. docs supplies the original text
// where the layout shows it; it may be nil.
func (r Renderer) Render(kind models.Kind, docs []models.Document, results []models.Result) {
	texts := make(map[string]string, len(docs))
	for _, doc := range docs {
		texts[doc.ID] = doc.Text
	}

	for _, result := range results {
		switch kind {
		case models.KindSentiment:
			r.sentiment(result)
		case models.KindOpinionMining:
			r.opinions(result, texts[result.ID])
		case models.KindEntities:
			r.entities(result)
		case models.KindLinkedEntities:
			r.linkedEntities(result)
		case models.KindLanguage:
			r.language(result)
		case models.KindKeyPhrases:
			r.keyPhrases(result)
		}
	}
}

func (r Renderer) failure(result models.Result) {
	fmt.Fprintf(r.Err, "Encountered an error for document %s: %s\n", result.ID, result.Error.Error())
}

func (r Renderer) sentiment(result models.Result) {
	if result.Failed() || result.Sentiment == nil {
		r.failureOrEmpty(result)
		return
	}
	s := result.Sentiment
	fmt.Fprintf(r.Out, "ID: %s\n", result.ID)
	fmt.Fprintf(r.Out, "\tDocument Sentiment: %s\n", s.Label)
	fmt.Fprintf(r.Out, "\tDocument Scores:\n")
	fmt.Fprintf(r.Out, "\t\t%s\n", tabbedScores(s.Scores))
	fmt.Fprintf(r.Out, "\tSentences Sentiment(%d):\n", len(s.Sentences))
	for _, sentence := range s.Sentences {
		fmt.Fprintf(r.Out, "\t\tSentence sentiment: %s\n", sentence.Label)
		fmt.Fprintf(r.Out, "\t\tSentences Scores:\n")
		fmt.Fprintf(r.Out, "\t\t%s\n", tabbedScores(sentence.Scores))
	}
}

func (r Renderer) opinions(result models.Result, text string) {
	fmt.Fprintf(r.Out, "- Document %s\n", result.ID)
	if result.Failed() || result.Sentiment == nil {
		r.failureOrEmpty(result)
		return
	}
	s := result.Sentiment
	fmt.Fprintf(r.Out, "\tDocument text: %s\n", text)
	fmt.Fprintf(r.Out, "\tOverall Sentiment: %s\n", s.Label)
	fmt.Fprintf(r.Out, "\tSentiment confidence scores: %s\n", bracedScores(s.Scores))
	fmt.Fprintf(r.Out, "\tSentences\n")
	for _, sentence := range s.Sentences {
		fmt.Fprintf(r.Out, "\t- Sentence Sentiment: %s\n", sentence.Label)
		fmt.Fprintf(r.Out, "\t  Confidence scores: %s\n", bracedScores(sentence.Scores))
		fmt.Fprintf(r.Out, "\t  Mined opinions\n")
		for _, op := range sentence.Opinions {
			fmt.Fprintf(r.Out, "\t\t- Target text: %s\n", op.Target.Text)
			fmt.Fprintf(r.Out, "\t\t  Target sentiment: %s\n", op.Target.Label)
			fmt.Fprintf(r.Out, "\t\t  Target confidence scores: %s\n", bracedScores(op.Target.Scores))
			fmt.Fprintf(r.Out, "\t\t  Target assessments\n")
			for _, a := range op.Assessments {
				fmt.Fprintf(r.Out, "\t\t\t- Text: %s\n", a.Text)
				fmt.Fprintf(r.Out, "\t\t\t  Assessment Sentiment: %s\n", a.Label)
			}
		}
	}
}

func (r Renderer) entities(result models.Result) {
	if result.Failed() {
		r.failure(result)
		return
	}
	fmt.Fprintf(r.Out, " -- Recognized entities for input %s --\n", result.ID)
	for _, e := range result.Entities {
		fmt.Fprintf(r.Out, "%s : %s (Score: %.2f)\n", e.Text, e.Category, e.Score)
	}
}

func (r Renderer) linkedEntities(result models.Result) {
	if result.Failed() {
		r.failure(result)
		return
	}
	fmt.Fprintf(r.Out, " -- Recognized linked entities for input %s --\n", result.ID)
	for _, e := range result.LinkedEntities {
		fmt.Fprintf(r.Out, "%s (URL: %s, Source: %s)\n", e.Name, e.URL, e.DataSource)
		for _, m := range e.Matches {
			fmt.Fprintf(r.Out, "  Occurrence: %q (Score: %.2f)\n", m.Text, m.Score)
		}
	}
}

func (r Renderer) language(result models.Result) {
	if result.Failed() || result.Language == nil {
		r.failureOrEmpty(result)
		return
	}
	l := result.Language
	fmt.Fprintf(r.Out, "Input # %s identified as %s (ISO6391: %s, Score: %.2f)\n", result.ID, l.Name, l.ISO6391, l.Score)
}

func (r Renderer) keyPhrases(result models.Result) {
	if result.Failed() {
		r.failure(result)
		return
	}
	fmt.Fprintf(r.Out, " -- Extract key phrases for input %s --\n", result.ID)
	quoted := make([]string, 0, len(result.KeyPhrases))
	for _, phrase := range result.KeyPhrases {
		quoted = append(quoted, fmt.Sprintf("%q", phrase))
	}
	fmt.Fprintf(r.Out, "[ %s ]\n", strings.Join(quoted, ", "))
}

// failureOrEmpty covers a result with neither an error nor a payload, which
// only a misbehaving backend produces.
func (r Renderer) failureOrEmpty(result models.Result) {
	if result.Failed() {
		r.failure(result)
		return
	}
	fmt.Fprintf(r.Err, "Encountered an error for document %s: empty result\n", result.ID)
}

func tabbedScores(s models.ConfidenceScores) string {
	return fmt.Sprintf("Positive: %.2f \tNegative: %.2f \tNeutral: %.2f", s.Positive, s.Negative, s.Neutral)
}

func bracedScores(s models.ConfidenceScores) string {
	return fmt.Sprintf("{ positive: %.2f, neutral: %.2f, negative: %.2f }", s.Positive, s.Neutral, s.Negative)
}
