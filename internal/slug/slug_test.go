package slug

import (
	"regexp"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"Hello World", "hello-world"},
		{"  Stand-Up  Night!! ", "stand-up-night"},
		{"Концерт в Москве", "концерт-в-москве"},
		{"ＡＢＣ １２３", "abc-123"},
		{"--__rock__--", "rock"},
		{"a -- b", "a-b"},
		{"!!!", ""},
	}
	for _, tc := range tests {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

var suffixRe = regexp.MustCompile(`-[0-9a-f]{8}$`)

func TestNew(t *testing.T) {
	t.Parallel()
	s := New("Большой концерт")
	if !strings.HasPrefix(s, "большой-концерт-") || !suffixRe.MatchString(s) {
		t.Fatalf("New = %q", s)
	}
	if New("Большой концерт") == s {
		t.Fatal("two slugs for the same title must differ")
	}
	if got := New("***"); len(got) != SuffixLen {
		t.Fatalf("empty base slug = %q", got)
	}
}
