package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-10-10",
		"2024-10-10T10:10:10Z",
		"2024/10/10",
		"10/10/2024",
		"2024-10-10 09:30:00",
	} {
		got, ok := ParseDate(s)
		if !ok {
			t.Fatalf("expected ok for %q", s)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: got %v want %v", s, got, want)
		}
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, s := range []string{"", "not-a-date", "2024-13-40", "-5"} {
		if _, ok := ParseDate(s); ok {
			t.Fatalf("expected not ok for %q", s)
		}
	}
}

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}
