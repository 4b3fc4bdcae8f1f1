package ingest

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyFile is returned when the input contains no rows at all.
	ErrEmptyFile = errors.New("file is empty")
)

// RawRow maps a header label to the cell value in that column. Rows
// shorter than the header get empty strings for the missing cells.
type RawRow map[string]string

// Delimiters supported by the upload dialog.
const (
	DelimComma     = ','
	DelimSemicolon = ';'
	DelimTab       = '\t'
	DelimPipe      = '|'
)

// DetectDelimiter guesses the delimiter by counting candidates on the
// first line of the sample. Highest count wins; comma on a tie.
func DetectDelimiter(sample string) rune {
	line := sample
	if i := strings.IndexAny(sample, "\r\n"); i >= 0 {
		line = sample[:i]
	}
	best, bestCount := rune(DelimComma), strings.Count(line, ",")
	for _, d := range []rune{DelimSemicolon, DelimTab, DelimPipe} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// Tokenize scans delimited text into rows of trimmed cells in a single
// left-to-right pass.
//
// Quoting follows the usual CSV rules: a quote toggles quoted mode, a
// doubled quote inside quotes emits one literal quote, and delimiters
// and newlines inside quotes are literal (multi-line fields supported).
// CRLF is consumed as one row terminator. Rows whose cells are all empty
// are dropped. An unterminated quote is flushed at EOF rather than
// treated as an error.
func Tokenize(text string, delim rune) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	endField := func() {
		row = append(row, strings.TrimSpace(field.String()))
		field.Reset()
	}
	endRow := func() {
		endField()
		for _, c := range row {
			if c != "" {
				rows = append(rows, row)
				break
			}
		}
		row = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++ // skip the escaped quote
			} else {
				inQuotes = !inQuotes
			}
		case c == delim && !inQuotes:
			endField()
		case (c == '\n' || c == '\r') && !inQuotes:
			if c == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			endRow()
		default:
			field.WriteRune(c)
		}
	}
	// Flush whatever is in progress at EOF, including an unterminated
	// quoted field.
	if field.Len() > 0 || len(row) > 0 {
		endRow()
	}

	return rows
}

// ParseDelimited tokenizes text and splits it into the header row and
// data rows keyed by header position. A file with only a header row
// yields zero data rows, which is not an error.
func ParseDelimited(text string, delim rune) ([]string, []RawRow, error) {
	rows := Tokenize(text, delim)
	if len(rows) == 0 {
		return nil, nil, ErrEmptyFile
	}
	headers := rows[0]
	data := make([]RawRow, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		data = append(data, rowFromCells(headers, cells))
	}
	return headers, data, nil
}

// rowFromCells zips header labels with cells; missing trailing cells
// default to the empty string, extra cells are dropped.
func rowFromCells(headers, cells []string) RawRow {
	row := make(RawRow, len(headers))
	for i, h := range headers {
		if i < len(cells) {
			row[h] = cells[i]
		} else {
			row[h] = ""
		}
	}
	return row
}
