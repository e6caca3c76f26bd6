package model

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("20240515063000")
	if err != nil {
		t.Fatalf("ParseTimestamp error: %v", err)
	}

	want := time.Date(2024, 5, 15, 6, 30, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("ParseTimestamp = %v, want %v", ts, want)
	}

	if FormatTimestamp(ts) != "20240515063000" {
		t.Fatalf("FormatTimestamp = %s, want original value", FormatTimestamp(ts))
	}
}

func TestParseTimestamp_EmptyMeansNever(t *testing.T) {
	ts, err := ParseTimestamp("")
	if err != nil {
		t.Fatalf("ParseTimestamp error: %v", err)
	}
	if !ts.IsZero() {
		t.Fatalf("empty timestamp must parse to zero instant, got %v", ts)
	}
}

func TestParseTimestamp_Malformed(t *testing.T) {
	if _, err := ParseTimestamp("2024-05-15T06:30:00Z"); err == nil {
		t.Fatalf("expected error for non-conforming timestamp")
	}
}

func TestTimestampOrderMatchesChronology(t *testing.T) {
	earlier := FormatTimestamp(time.Date(2024, 5, 15, 6, 30, 0, 0, time.UTC))
	later := FormatTimestamp(time.Date(2024, 5, 15, 18, 5, 0, 0, time.UTC))

	if !(earlier < later) {
		t.Fatalf("lexicographic order must match chronological: %s vs %s", earlier, later)
	}
}
