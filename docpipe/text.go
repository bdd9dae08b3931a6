package docpipe

import (
	"bytes"
	"context"
	"os"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// loadText reads the whole file as one document. Source code, Markdown and
// anything unrecognised end up here.
func loadText(_ context.Context, f File) ([]Document, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(data, f.ContentType)
	if err != nil {
		return nil, err
	}
	return []Document{{Text: text, Metadata: sourceMeta(f)}}, nil
}

// decodeText returns data as a string. Valid UTF-8 is kept as is, minus a
// leading byte-order mark; anything else goes through charset detection with
// the declared content type as a hint.
func decodeText(data []byte, contentType string) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	enc, name, _ := charset.DetermineEncoding(data, contentType)
	if name == "utf-8" {
		// Detection fell back to UTF-8 on invalid input; Fix replaces the
		// bad bytes later.
		return string(data), nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
