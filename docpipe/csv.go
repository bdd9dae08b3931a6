package docpipe

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// loadCSV emits one document per data row. The text lists every column as
// "header: value" on its own line; metadata carries the 0-based row index.
func loadCSV(ctx context.Context, f File) ([]Document, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(data, f.ContentType)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var docs []Document
	for row := 0; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", row, err)
		}
		if row%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		lines := make([]string, 0, len(header))
		for i, h := range header {
			v := ""
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			lines = append(lines, h+": "+v)
		}
		meta := sourceMeta(f)
		meta["row"] = row
		docs = append(docs, Document{Text: strings.Join(lines, "\n"), Metadata: meta})
	}
	return docs, nil
}
