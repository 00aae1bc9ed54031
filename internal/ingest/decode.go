// Package ingest converts uploaded files into the delimited byte blob
// the analysis pipeline consumes. Delimited text passes through
// untouched; Excel workbooks are flattened to semicolon-delimited text
// so the pipeline only ever sees one input shape.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DecodeUpload returns delimited-text bytes for the given upload.
func DecodeUpload(filename string, data []byte) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return flattenWorkbook(data)
	}
	return data, nil
}

// flattenWorkbook renders the first worksheet as semicolon-delimited
// text. Cells are quoted by the CSV writer, so embedded delimiters and
// newlines survive the round trip.
func flattenWorkbook(data []byte) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	// Rows come back ragged; pad to the header width so every record
	// keeps its column positions.
	width := len(rows[0])

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	for _, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush records: %w", err)
	}
	return buf.Bytes(), nil
}
