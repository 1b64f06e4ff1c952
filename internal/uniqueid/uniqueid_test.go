package uniqueid

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"
)

var idPattern = regexp.MustCompile(`^YUKTI-\d{4}-[A-Z2-9]{8}$`)

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, 3, 14, 10, 0, 0, 0, time.UTC)
	}
}

func TestGenerateFormat(t *testing.T) {
	gen := New()

	for i := 0; i < 100; i++ {
		id, err := gen.Generate()

		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}

		if !idPattern.MatchString(id) {
			t.Fatalf("id %q does not match expected pattern", id)
		}

		suffix := id[strings.LastIndex(id, "-")+1:]

		for _, amb := range []string{"0", "O", "1", "I"} {
			if strings.Contains(suffix, amb) {
				t.Fatalf("id %q contains ambiguous character %s", id, amb)
			}
		}
	}
}

func TestGenerateUsesClockYear(t *testing.T) {
	gen := NewWithSource(bytes.NewReader(make([]byte, idLength)), fixedClock(2031))

	id, err := gen.Generate()

	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if !strings.HasPrefix(id, "YUKTI-2031-") {
		t.Fatalf("id %q does not carry clock year", id)
	}
}

func TestGenerateDeterministicSource(t *testing.T) {
	// zero bytes map to the first alphabet character
	gen := NewWithSource(bytes.NewReader(make([]byte, idLength)), fixedClock(2026))

	id, err := gen.Generate()

	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	want := "YUKTI-2026-AAAAAAAA"

	if id != want {
		t.Fatalf("got %q want %q", id, want)
	}
}

func TestGenerateShortSource(t *testing.T) {
	gen := NewWithSource(bytes.NewReader([]byte{1, 2}), fixedClock(2026))

	_, err := gen.Generate()

	if err == nil {
		t.Fatal("expected error from short random source")
	}
}
