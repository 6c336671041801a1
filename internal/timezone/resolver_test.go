package timezone

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	t.Parallel()
	r := NewResolver()
	tests := []struct {
		name    string
		zone    string
		wantErr bool
	}{
		{"moscow", "Europe/Moscow", false},
		{"padded", "  Asia/Yekaterinburg ", false},
		{"utc", "UTC", false},
		{"typo", "Europe/Moskva", true},
		{"empty", "", true},
		{"local", "Local", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loc, err := r.Resolve(tc.zone)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownZone) {
					t.Fatalf("err = %v, want ErrUnknownZone", err)
				}
				if loc != nil {
					t.Fatal("location must be nil on error")
				}
				return
			}
			if err != nil || loc == nil {
				t.Fatalf("Resolve(%q) = %v, %v", tc.zone, loc, err)
			}
		})
	}
}

func TestResolveCachesFailures(t *testing.T) {
	t.Parallel()
	r := NewResolver()
	_, err1 := r.Resolve("Mars/Olympus")
	_, err2 := r.Resolve("Mars/Olympus")
	if err1 == nil || err1 != err2 {
		t.Fatalf("expected the cached error to be returned, got %v and %v", err1, err2)
	}
	if err := r.Validate(DefaultZone); err != nil {
		t.Fatalf("default zone must validate: %v", err)
	}
}
