package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDateRoundTripsWireFormat(t *testing.T) {
	d, err := ParseDate("2024-01-10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Year != 2024 || d.Month != time.January || d.Day != 10 {
		t.Fatalf("unexpected date %+v", d)
	}
	if d.String() != "2024-01-10" {
		t.Fatalf("unexpected string %q", d.String())
	}
	if _, err := ParseDate("10/01/2024"); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}

func TestDateTimeIsUTCMidnight(t *testing.T) {
	got := MustParseDate("2024-03-05").Time()
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s got %s", want, got)
	}
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		Start Date  `json:"start"`
		End   *Date `json:"end,omitempty"`
	}

	var got payload
	if err := json.Unmarshal([]byte(`{"start":"2024-01-10","end":null}`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Start != MustParseDate("2024-01-10") {
		t.Fatalf("unexpected start %v", got.Start)
	}
	if got.End != nil {
		t.Fatalf("expected nil end, got %v", got.End)
	}

	out, err := json.Marshal(payload{Start: MustParseDate("2024-02-29")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"start":"2024-02-29"}` {
		t.Fatalf("unexpected json %s", out)
	}

	if err := json.Unmarshal([]byte(`{"start":"tomorrow"}`), &got); err == nil {
		t.Fatalf("expected invalid date to fail")
	}
}

func TestDateScanAndValue(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("scan time: %v", err)
	}
	if d.String() != "2024-05-01" {
		t.Fatalf("unexpected scanned date %s", d)
	}
	if err := d.Scan("2024-05-02 00:00:00+00:00"); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if d.String() != "2024-05-02" {
		t.Fatalf("unexpected scanned date %s", d)
	}
	if err := d.Scan([]byte("2024-05-03")); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	val, err := d.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if val != "2024-05-03" {
		t.Fatalf("unexpected value %v", val)
	}
	if err := d.Scan(42); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	if err := d.Scan(nil); err != nil || !d.IsZero() {
		t.Fatalf("expected nil scan to zero the date")
	}
}

func TestDateArithmetic(t *testing.T) {
	start := MustParseDate("2024-01-30")
	end := start.AddDays(3)
	if end.String() != "2024-02-02" {
		t.Fatalf("unexpected AddDays result %s", end)
	}
	if start.DaysUntil(end) != 3 {
		t.Fatalf("expected 3 days, got %d", start.DaysUntil(end))
	}
	if !start.Before(end) || !end.After(start) {
		t.Fatalf("ordering helpers disagree")
	}
}
