package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// candidate delimiters, checked in this order when sniffing.
var candidateDelimiters = []rune{',', ';', '\t'}

// fallbackDelimiter is retried once when sniffing fails or the sniffed
// delimiter does not yield a usable table.
const fallbackDelimiter = ';'

// Parse turns raw uploaded bytes into a RawTable. The field delimiter
// is sniffed from the first non-empty line; if sniffing is ambiguous or
// the sniffed delimiter fails, parsing is retried once with the
// fallback delimiter before giving up with a ParseError.
func Parse(raw []byte) (*RawTable, error) {
	text := normalizeText(raw)
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Err: fmt.Errorf("file is empty")}
	}

	delim, ok := sniffDelimiter(text)
	if ok {
		if table, err := readTable(text, delim); err == nil {
			return table, nil
		}
	}

	table, err := readTable(text, fallbackDelimiter)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return table, nil
}

// normalizeText strips a UTF-8 byte-order mark and folds CRLF and bare
// CR line endings to LF so encoding/csv sees uniform input.
func normalizeText(raw []byte) string {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	raw = bytes.ReplaceAll(raw, []byte("\r"), []byte("\n"))
	return string(raw)
}

// sniffDelimiter picks the candidate that appears most often in the
// first non-empty line. Returns false when no candidate appears at all
// or two candidates tie, which sends the caller to the fallback.
func sniffDelimiter(text string) (rune, bool) {
	var header string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			header = line
			break
		}
	}

	best, bestCount, tied := rune(0), 0, false
	for _, d := range candidateDelimiters {
		count := strings.Count(header, string(d))
		switch {
		case count > bestCount:
			best, bestCount, tied = d, count, false
		case count == bestCount && count > 0:
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return 0, false
	}
	return best, true
}

// readTable parses the text with a specific delimiter. Ragged rows are
// tolerated; rows shorter than the header simply lack those cells and
// fall out during normalization.
func readTable(text string, delim rune) (*RawTable, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read delimited records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no rows found")
	}
	if len(records[0]) < 2 {
		return nil, fmt.Errorf("only one column detected with delimiter %q", delim)
	}

	return &RawTable{
		Headers:   records[0],
		Rows:      records[1:],
		Delimiter: delim,
	}, nil
}
