package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Parse reads element sets from r in the 3-line form (name line first) or
// the bare 2-line form. Entries with a bad layout or checksum are skipped
// with a warning.
func Parse(r io.Reader, logger *slog.Logger) ([]Entry, error) {
	var (
		entries []Entry
		name    string
		line1   string
		lineNo  int
	)
	skip := func(reason string, err error) {
		logger.Warn("skipping TLE entry", "component", "tle", "line", lineNo, "name", name, "reason", reason, "error", err)
		name, line1 = "", ""
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r ")
		switch {
		case strings.TrimSpace(line) == "":
		case strings.HasPrefix(line, "1 "):
			if line1 != "" {
				skip("line 1 without line 2", nil)
			}
			line1 = line
		case strings.HasPrefix(line, "2 "):
			if line1 == "" {
				skip("line 2 without line 1", nil)
				continue
			}
			entry, err := parseEntry(name, line1, line)
			if err != nil {
				skip("invalid entry", err)
				continue
			}
			entries = append(entries, entry)
			name, line1 = "", ""
		default:
			if line1 != "" {
				skip("line 1 without line 2", nil)
			}
			name = strings.TrimSpace(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}
	return entries, nil
}

// Find returns the entry with the given NORAD catalog number.
func Find(entries []Entry, noradID int) (Entry, bool) {
	for _, e := range entries {
		if e.NORADID == noradID {
			return e, true
		}
	}
	return Entry{}, false
}

// CheckLine verifies a 69-column element line: its line number and the
// modulo-10 checksum in the last column (digits count their value, '-' counts 1).
func CheckLine(line string, number byte) error {
	if len(line) != 69 {
		return fmt.Errorf("line %c: length %d, want 69", number, len(line))
	}
	if line[0] != number {
		return fmt.Errorf("line %c: starts with %q", number, line[0])
	}
	sum := 0
	for _, c := range line[:68] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	if want := byte('0' + sum%10); line[68] != want {
		return fmt.Errorf("line %c: checksum %c, want %c", number, line[68], want)
	}
	return nil
}

func parseEntry(name, line1, line2 string) (Entry, error) {
	if err := CheckLine(line1, '1'); err != nil {
		return Entry{}, err
	}
	if err := CheckLine(line2, '2'); err != nil {
		return Entry{}, err
	}

	// Catalog number, columns 3-7 of both lines.
	id := strings.TrimSpace(line1[2:7])
	if id != strings.TrimSpace(line2[2:7]) {
		return Entry{}, fmt.Errorf("catalog number mismatch %q/%q", id, strings.TrimSpace(line2[2:7]))
	}
	noradID, err := strconv.Atoi(id)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid NORAD ID %q", id)
	}

	// Epoch, columns 19-32.
	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Entry{}, err
	}

	if name == "" {
		name = id
	}
	return Entry{NORADID: noradID, Name: name, Epoch: epoch, Line1: line1, Line2: line2}, nil
}

// parseEpoch converts a YYDDD.DDDDDDDD epoch. Years 57-99 are 19xx, 00-56 are 20xx.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch %q too short", s)
	}
	yy, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	day, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	year := 2000 + yy
	if yy >= 57 {
		year = 1900 + yy
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((day - 1) * float64(24*time.Hour))), nil
}
