package tle

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const issTLE = "ISS (ZARYA)\n1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9009\n2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    01\n"

// TestFetcherBodyLimit verifies that oversized responses return an error.
func TestFetcherBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		chunk := strings.Repeat("A", 64*1024)
		for i := 0; i < 20; i++ {
			if _, err := w.Write([]byte(chunk)); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	_, err := NewFetcher(server.URL, testLogger).Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for oversized response, got nil")
	}
	if !strings.Contains(err.Error(), "byte limit") {
		t.Errorf("expected body limit error, got: %v", err)
	}
}

func TestFetcherSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(issTLE))
	}))
	defer server.Close()

	entries, err := NewFetcher(server.URL, testLogger).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].NORADID != 25544 || entries[0].Name != "ISS (ZARYA)" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestFetcherHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewFetcher(server.URL, testLogger).Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
}

func TestFetcherDefaultURL(t *testing.T) {
	if got := NewFetcher("", testLogger).SourceURL(); got != DefaultSourceURL {
		t.Errorf("SourceURL() = %q, want %q", got, DefaultSourceURL)
	}
}

func TestParseFormats(t *testing.T) {
	twoLine := "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9009\n2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    01\n"
	garbage := "not a tle\n1 oops\n"

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"three line", issTLE, 1},
		{"two line", twoLine, 1},
		{"garbage then valid", garbage + issTLE, 1},
		{"bad checksum skipped", strings.Replace(issTLE, "9009", "9008", 1), 0},
		{"line 2 without line 1", "ISS\n2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    01\n" + issTLE, 1},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Parse(strings.NewReader(tt.input), testLogger)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if len(entries) != tt.want {
				t.Fatalf("got %d entries, want %d", len(entries), tt.want)
			}
		})
	}
}

func TestParseEpoch(t *testing.T) {
	got, err := parseEpoch("24100.50000000")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parseEpoch = %v, want %v", got, want)
	}

	got, err = parseEpoch("98001.00000000")
	if err != nil {
		t.Fatal(err)
	}
	if got.Year() != 1998 {
		t.Errorf("year = %d, want 1998", got.Year())
	}
}

func TestFind(t *testing.T) {
	entries, _ := Parse(strings.NewReader(issTLE), testLogger)
	if _, ok := Find(entries, 25544); !ok {
		t.Error("expected to find 25544")
	}
	if _, ok := Find(entries, 1); ok {
		t.Error("did not expect to find 1")
	}
}

func TestCheckLine(t *testing.T) {
	line1 := "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9009"
	if err := CheckLine(line1, '1'); err != nil {
		t.Errorf("valid line: %v", err)
	}
	if err := CheckLine(line1, '2'); err == nil {
		t.Error("wrong line number accepted")
	}
	if err := CheckLine(line1[:68]+"3", '1'); err == nil {
		t.Error("bad checksum accepted")
	}
	if err := CheckLine("1 25544U", '1'); err == nil {
		t.Error("short line accepted")
	}
}
