package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/spacesedan/textflow/internal/models"
)

// minLetters is the shortest sample worth asking the detector about.
const minLetters = 6

// Unknown names a language that could not be determined.
const Unknown = "(Unknown)"

// Detector wraps a lazily built lingua detector.
type Detector struct {
	languages []lingua.Language
	once      sync.Once
	detector  lingua.LanguageDetector
}

// New restricts detection to the given languages; none means all of them.
func New(languages ...lingua.Language) *Detector {
	return &Detector{languages: languages}
}

// ParseLanguages turns a comma separated list of ISO 639-1 codes into lingua
// languages. Unknown codes are skipped.
func ParseLanguages(raw string) []lingua.Language {
	var out []lingua.Language
	for _, part := range strings.Split(raw, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" {
			continue
		}
		iso := lingua.GetIsoCode639_1FromValue(code)
		if iso == lingua.UnknownIsoCode639_1 {
			continue
		}
		out = append(out, lingua.GetLanguageFromIsoCode639_1(iso))
	}
	return out
}

// Detect returns the most likely language of text. Samples with too few
// letters, or that lingua cannot place, are reported as unknown with score 0.
func (d *Detector) Detect(text string) models.DetectedLanguage {
	sample := strings.TrimSpace(text)

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < minLetters {
		return models.DetectedLanguage{Name: Unknown, ISO6391: Unknown}
	}

	values := d.get().ComputeLanguageConfidenceValues(sample)
	if len(values) == 0 || values[0].Value() == 0 {
		return models.DetectedLanguage{Name: Unknown, ISO6391: Unknown}
	}

	top := values[0]
	code := strings.ToLower(top.Language().IsoCode639_1().String())
	return models.DetectedLanguage{
		Name:    displayName(top.Language()),
		ISO6391: code,
		Score:   top.Value(),
	}
}

func (d *Detector) get() lingua.LanguageDetector {
	d.once.Do(func() {
		builder := lingua.NewLanguageDetectorBuilder()
		if len(d.languages) >= 2 {
			d.detector = builder.FromLanguages(d.languages...).Build()
			return
		}
		d.detector = builder.FromAllLanguages().Build()
	})
	return d.detector
}

// NameFromISO maps an ISO 639-1 code such as "es" to "Spanish". Codes lingua
// does not know come back as "(Unknown)".
func NameFromISO(code string) string {
	iso := lingua.GetIsoCode639_1FromValue(strings.ToUpper(strings.TrimSpace(code)))
	if iso == lingua.UnknownIsoCode639_1 {
		return Unknown
	}
	return displayName(lingua.GetLanguageFromIsoCode639_1(iso))
}

// displayName turns "SPANISH" into "Spanish".
func displayName(language lingua.Language) string {
	name := strings.ToLower(language.String())
	if name == "" {
		return Unknown
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
