package docpipe

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// loadDocx reads word/document.xml and returns one document whose text is
// the non-empty paragraphs joined by newlines. Tabs and breaks inside a
// paragraph are kept as whitespace.
func loadDocx(_ context.Context, f File) ([]Document, error) {
	r, err := zip.OpenReader(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	rc, err := r.Open("word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("word/document.xml: %w", err)
	}
	defer rc.Close()

	paras, err := docxParagraphs(rc)
	if err != nil {
		return nil, err
	}
	return []Document{{Text: strings.Join(paras, "\n"), Metadata: sourceMeta(f)}}, nil
}

// maxXMLDepth bounds element nesting in Office parts.
const maxXMLDepth = 256

func docxParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	var paras []string
	var current strings.Builder
	inParagraph, inText := false, false
	depth := 0

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth++; depth > maxXMLDepth {
				return nil, fmt.Errorf("document.xml: nesting depth exceeds %d", maxXMLDepth)
			}
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				inText = inParagraph
			case "tab":
				if inParagraph {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inParagraph {
					current.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			depth--
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				inParagraph = false
				if text := strings.TrimSpace(current.String()); text != "" {
					paras = append(paras, text)
				}
			}
		}
	}
	return paras, nil
}
