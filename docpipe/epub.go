// CLAUDE:SUMMARY EPUB loader: follows container.xml → OPF spine, sanitises each chapter and renders it as Markdown.
package docpipe

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// epubLoader renders the chapters of an EPUB in spine order and returns
// them as one document, chapters separated by a blank line.
type epubLoader struct {
	policy      *bluemonday.Policy
	mdConverter *converter.Converter
}

func newEPUBLoader() *epubLoader {
	return &epubLoader{
		policy: bluemonday.UGCPolicy(),
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef  string `xml:"idref,attr"`
		Linear string `xml:"linear,attr"`
	} `xml:"spine>itemref"`
}

func (l *epubLoader) Load(ctx context.Context, f File) ([]Document, error) {
	zr, err := zip.OpenReader(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	var container epubContainer
	if err := readZipXML(&zr.Reader, "META-INF/container.xml", &container); err != nil {
		return nil, err
	}
	if len(container.Rootfiles) == 0 || container.Rootfiles[0].FullPath == "" {
		return nil, fmt.Errorf("container.xml: no rootfile")
	}
	opfPath := container.Rootfiles[0].FullPath

	var pkg epubPackage
	if err := readZipXML(&zr.Reader, opfPath, &pkg); err != nil {
		return nil, err
	}
	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefs[item.ID] = item.Href
	}

	opfDir := path.Dir(opfPath)
	var chapters []string
	for _, ref := range pkg.Spine {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ref.Linear == "no" {
			continue
		}
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		if u, err := url.PathUnescape(href); err == nil {
			href = u
		}
		name := path.Clean(path.Join(opfDir, href))
		raw, err := readZipFile(&zr.Reader, name)
		if err != nil {
			return nil, err
		}
		md, err := l.renderChapter(raw)
		if err != nil {
			return nil, fmt.Errorf("chapter %s: %w", name, err)
		}
		if md = strings.TrimSpace(md); md != "" {
			chapters = append(chapters, md)
		}
	}
	return []Document{{Text: strings.Join(chapters, "\n\n"), Metadata: sourceMeta(f)}}, nil
}

// renderChapter keeps the <body> of an XHTML chapter, strips anything
// unsafe and converts the rest to Markdown.
func (l *epubLoader) renderChapter(raw []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if body := findElement(doc, atom.Body); body != nil {
		for c := body.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
	} else {
		buf.Write(raw)
	}
	clean := l.policy.SanitizeBytes(buf.Bytes())
	return l.mdConverter.ConvertString(string(clean))
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	rc, err := zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func readZipXML(zr *zip.Reader, name string, v any) error {
	data, err := readZipFile(zr, name)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}
