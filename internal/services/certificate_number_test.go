package services

import (
	"regexp"
	"testing"
	"time"
)

var certificateNumberPattern = regexp.MustCompile(`^FPDA-\d+-[0-9A-Z]{6}$`)

func TestNumberGeneratorFormat(t *testing.T) {
	t.Parallel()
	gen := NewNumberGenerator("")
	at := time.Date(2025, 3, 15, 8, 30, 0, 0, time.UTC)

	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		n, err := gen(at)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !certificateNumberPattern.MatchString(n) {
			t.Fatalf("unexpected number format %q", n)
		}
		seen[n] = struct{}{}
	}
	if len(seen) < 45 {
		t.Fatalf("suffixes look non-random: %d distinct of 50", len(seen))
	}
}

func TestNumberGeneratorCustomPrefix(t *testing.T) {
	t.Parallel()
	n, err := NewNumberGenerator(" acad ")(time.Unix(0, 0))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if matched, _ := regexp.MatchString(`^ACAD-0-[0-9A-Z]{6}$`, n); !matched {
		t.Fatalf("unexpected number %q", n)
	}
}

func TestAddYearsClamped(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		in    time.Time
		years int
		want  time.Time
	}{
		{"plain date", time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), 3, time.Date(2027, 3, 15, 10, 0, 0, 0, time.UTC)},
		{"leap day to common year", time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC), 3, time.Date(2027, 2, 28, 23, 59, 0, 0, time.UTC)},
		{"leap day to leap year", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 4, time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"year end", time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 3, time.Date(2028, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := AddYearsClamped(tc.in, tc.years); !got.Equal(tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}
