package langdetect

import (
	"testing"

	lingua "github.com/pemistahl/lingua-go"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	d := New(lingua.Spanish, lingua.English, lingua.Portuguese)
	cases := map[string]string{
		"Este es un documento escrito en español.":  "es",
		"This is a document written in English.":    "en",
		"Isto é um documento escrito em português.": "pt",
	}
	for text, want := range cases {
		got := d.Detect(text)
		if got.ISO6391 != want {
			t.Fatalf("Detect(%q) = %q, want %q", text, got.ISO6391, want)
		}
		if got.Score <= 0 || got.Score > 1 {
			t.Fatalf("Detect(%q) score out of range: %v", text, got.Score)
		}
	}
}

func TestDetectShortSample(t *testing.T) {
	t.Parallel()

	got := New(lingua.Spanish, lingua.English).Detect(" 42! ")
	if got.ISO6391 != Unknown || got.Score != 0 {
		t.Fatalf("expected unknown for short sample, got %+v", got)
	}
}

func TestParseLanguages(t *testing.T) {
	t.Parallel()

	got := ParseLanguages(" es, EN ,zz,,pt")
	want := []lingua.Language{lingua.Spanish, lingua.English, lingua.Portuguese}
	if len(got) != len(want) {
		t.Fatalf("expected %d languages, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("language %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	if got := displayName(lingua.Portuguese); got != "Portuguese" {
		t.Fatalf("unexpected display name %q", got)
	}
}

func TestNameFromISO(t *testing.T) {
	t.Parallel()

	cases := map[string]string{"es": "Spanish", " EN ": "English", "pt": "Portuguese", "zz": Unknown, "": Unknown}
	for code, want := range cases {
		if got := NameFromISO(code); got != want {
			t.Fatalf("NameFromISO(%q) = %q, want %q", code, got, want)
		}
	}
}
