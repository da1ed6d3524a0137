// Package csvview parses delimited text into rows and renders them as a
// table. The first row gets no header treatment and cells are never coerced.
package csvview

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// MaxInputBytes bounds how much of an upload is read.
const MaxInputBytes = 10 << 20

// ErrTooLarge is returned when the input exceeds MaxInputBytes.
var ErrTooLarge = errors.New("csv input too large")

var candidates = []rune{',', '\t', '|', ';'}

// DetectDelimiter guesses the field separator from the first non-empty
// lines of data. It picks the candidate that splits those lines into the
// most consistent, multi-field rows, and falls back to a comma.
func DetectDelimiter(data []byte) rune {
	lines := sampleLines(data, 10)
	if len(lines) == 0 {
		return ','
	}

	best, bestScore := ',', 0
	for _, d := range candidates {
		score := scoreDelimiter(lines, d)
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}

func sampleLines(data []byte, n int) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), MaxInputBytes)
	for sc.Scan() && len(lines) < n {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// scoreDelimiter counts fields per line; lines that disagree with the
// first line's count cost a point each.
func scoreDelimiter(lines []string, d rune) int {
	first := strings.Count(lines[0], string(d))
	if first == 0 {
		return 0
	}
	score := 0
	for _, line := range lines {
		if strings.Count(line, string(d)) == first {
			score += first + 1
		} else {
			score--
		}
	}
	return score
}

// Parse reads all records from r. Empty lines are skipped and rows may have
// different numbers of fields.
func Parse(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(data) > MaxInputBytes {
		return nil, ErrTooLarge
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = DetectDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing csv: %w", err)
		}
		if isBlank(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// isBlank reports whether a record came from a whitespace-only line.
func isBlank(rec []string) bool {
	return len(rec) == 1 && strings.TrimSpace(rec[0]) == ""
}

var tableTmpl = template.Must(template.New("table").Parse(
	`<table>{{range .}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</table>`,
))

// RenderHTML writes rows as an HTML table, one <tr> per record and one <td>
// per cell. Cell text is escaped.
func RenderHTML(w io.Writer, rows [][]string) error {
	return tableTmpl.Execute(w, rows)
}

// RenderText renders rows as a bordered terminal table.
func RenderText(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	padded := make([][]string, len(rows))
	for i, row := range rows {
		p := make([]string, width)
		copy(p, row)
		padded[i] = p
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Rows(padded...).
		String()
}
