package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	got, ok := ParseDay("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseDayInvalid(t *testing.T) {
	if _, ok := ParseDay("10/10/2024"); ok {
		t.Fatalf("expected parse failure")
	}
	if _, ok := ParseDay(""); ok {
		t.Fatalf("expected parse failure for empty input")
	}
}

func TestFormatDayRoundTrip(t *testing.T) {
	day := time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)
	got, ok := ParseDay(FormatDay(day))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2024 || got.Month() != 3 || got.Day() != 1 {
		t.Fatalf("unexpected round trip %v", got)
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
