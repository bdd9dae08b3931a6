package docpipe

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
)

// loadXML returns one document holding every non-blank run of character
// data, trimmed, one per line. Non-UTF-8 encodings declared in the prolog
// are decoded.
func loadXML(_ context.Context, f File) ([]Document, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	decoder := xml.NewDecoder(fh)
	decoder.Strict = false
	decoder.CharsetReader = charset.NewReaderLabel

	var parts []string
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		if cd, ok := tok.(xml.CharData); ok {
			if s := strings.TrimSpace(string(cd)); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return []Document{{Text: strings.Join(parts, "\n"), Metadata: sourceMeta(f)}}, nil
}
