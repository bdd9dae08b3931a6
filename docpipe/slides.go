// CLAUDE:SUMMARY Slide deck loader (.pptx): one document with a "Slide n:" block per slide that has text.
package docpipe

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SlideLoader reads a .pptx deck. Slides are numbered from 1 in
// presentation order; a slide contributes a block only when at least one
// of its shapes has non-blank text. Any parse failure fails the call.
type SlideLoader struct{}

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Load implements Loader.
func (SlideLoader) Load(ctx context.Context, f File) ([]Document, error) {
	zr, err := zip.OpenReader(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	parts, err := slideOrder(&zr.Reader)
	if err != nil {
		return nil, err
	}

	var blocks []string
	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rc, err := zr.Open(part)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", part, err)
		}
		texts, err := slideShapeTexts(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", part, err)
		}
		if len(texts) > 0 {
			blocks = append(blocks, "Slide "+strconv.Itoa(i+1)+":\n"+strings.Join(texts, "\n"))
		}
	}
	return []Document{{Text: strings.Join(blocks, "\n\n"), Metadata: sourceMeta(f)}}, nil
}

type presentationXML struct {
	SlideIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationshipsXML struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// slideOrder returns the slide part names in presentation order. It follows
// sldIdLst through the presentation relationships and falls back to the
// numeric order of the slide parts when either file is missing.
func slideOrder(zr *zip.Reader) ([]string, error) {
	var pres presentationXML
	var rels relationshipsXML
	errPres := readZipXML(zr, "ppt/presentation.xml", &pres)
	errRels := readZipXML(zr, "ppt/_rels/presentation.xml.rels", &rels)
	if errPres == nil && errRels == nil && len(pres.SlideIDs) > 0 {
		targets := make(map[string]string, len(rels.Rels))
		for _, r := range rels.Rels {
			targets[r.ID] = r.Target
		}
		parts := make([]string, 0, len(pres.SlideIDs))
		for _, s := range pres.SlideIDs {
			target, ok := targets[s.RID]
			if !ok {
				return nil, fmt.Errorf("presentation.xml: unknown slide relationship %q", s.RID)
			}
			if strings.HasPrefix(target, "/") {
				parts = append(parts, strings.TrimPrefix(target, "/"))
			} else {
				parts = append(parts, path.Clean(path.Join("ppt", target)))
			}
		}
		return parts, nil
	}
	if errPres != nil && !errors.Is(errPres, fs.ErrNotExist) {
		return nil, errPres
	}

	type numbered struct {
		n    int
		name string
	}
	var found []numbered
	for _, zf := range zr.File {
		if m := slidePartRe.FindStringSubmatch(zf.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			found = append(found, numbered{n, zf.Name})
		}
	}
	if len(found) == 0 && errPres != nil {
		return nil, fmt.Errorf("not a presentation: %w", errPres)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
	parts := make([]string, len(found))
	for i, s := range found {
		parts[i] = s.name
	}
	return parts, nil
}

// slideShapeTexts returns the trimmed, non-empty text of every top-level
// shape of a slide, in document order. Paragraphs of a shape are joined
// with newlines; runs are concatenated.
func slideShapeTexts(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	var (
		stack   []string
		texts   []string
		shape   strings.Builder
		para    strings.Builder
		inShape bool
		paras   int
	)
	parent := func() string {
		if len(stack) < 2 {
			return ""
		}
		return stack[len(stack)-2]
	}

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) >= maxXMLDepth {
				return nil, fmt.Errorf("nesting depth exceeds %d", maxXMLDepth)
			}
			stack = append(stack, t.Name.Local)
			switch t.Name.Local {
			case "sp":
				if parent() == "spTree" {
					inShape = true
					shape.Reset()
					paras = 0
				}
			case "p":
				if inShape {
					para.Reset()
				}
			case "br":
				if inShape {
					para.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inShape && len(stack) > 0 && stack[len(stack)-1] == "t" {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inShape && parent() == "txBody" {
					if paras > 0 {
						shape.WriteByte('\n')
					}
					shape.WriteString(para.String())
					paras++
				}
			case "sp":
				if inShape && parent() == "spTree" {
					inShape = false
					if text := strings.TrimSpace(shape.String()); text != "" {
						texts = append(texts, text)
					}
				}
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return texts, nil
}
