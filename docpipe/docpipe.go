// CLAUDE:SUMMARY Pipeline engine: classifies an upload, dispatches to the matching loader, repairs text.
// Package docpipe turns uploaded files into normalised text documents.
//
// Supported formats:
//   - .pdf         one document per page (pdfcpu)
//   - .csv         one document per data row
//   - .rst         one document per element (title, list item, narrative text)
//   - .xml         character data
//   - .htm/.html   visible text, with the <title>
//   - .md          plain text
//   - epub         chapters sanitised and rendered to Markdown
//   - .docx        paragraphs
//   - .xls/.xlsx   one document per non-empty sheet (excelize)
//   - .ppt/.pptx   one document with the text of every slide
//   - .msg         Outlook message headers and body (mscfb)
//   - source code and anything else: text with charset detection
//
// When remote extraction is configured, everything that is not source code
// or text/* is sent to an Apache Tika server instead.
//
// Usage:
//
//	pipe := docpipe.New(docpipe.Config{})
//	docs, err := pipe.Load(ctx, docpipe.File{Filename: "report.pdf", Path: "/tmp/up/123"})
//	fmt.Println(len(docs), "documents")
package docpipe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hazyhaar/docload/textfix"
)

// Pipeline is the document loading engine. It is safe for concurrent use;
// calls share no mutable state.
type Pipeline struct {
	cfg     Config
	logger  *slog.Logger
	loaders map[Kind]Loader
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	p := &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
	}
	text := LoaderFunc(loadText)
	p.loaders = map[Kind]Loader{
		KindPDF:         &pdfLoader{extractImages: cfg.PDFExtractImages},
		KindCSV:         LoaderFunc(loadCSV),
		KindRST:         LoaderFunc(loadRST),
		KindXML:         LoaderFunc(loadXML),
		KindHTML:        LoaderFunc(loadHTML),
		KindMarkdown:    text,
		KindEPUB:        newEPUBLoader(),
		KindDocx:        LoaderFunc(loadDocx),
		KindSpreadsheet: &SpreadsheetLoader{MaxRows: cfg.Spreadsheet.MaxRows, ChunkSize: cfg.Spreadsheet.ChunkSize, Logger: cfg.Logger},
		KindSlides:      SlideLoader{},
		KindMSG:         LoaderFunc(loadMSG),
		KindText:        text,
	}
	if cfg.remoteActive() {
		p.loaders[KindRemote] = NewRemoteLoader(cfg.RemoteExtraction.Endpoint, cfg.RemoteExtraction.Timeout)
	}
	return p
}

// Load extracts the documents of f. Every document's text is repaired with
// textfix.Fix; metadata is passed through unchanged.
func (p *Pipeline) Load(ctx context.Context, f File) ([]Document, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return nil, &FileReadError{Path: f.Path, Err: err}
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, &FileReadError{
			Path: f.Path,
			Err:  fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), p.cfg.MaxFileSize),
		}
	}

	kind := p.Classify(f)
	loader, ok := p.loaders[kind]
	if !ok {
		return nil, &FileReadError{Path: f.Path, Kind: kind, Err: fmt.Errorf("no loader for kind %q", kind)}
	}

	p.logger.Debug("loading document", "filename", f.Filename, "kind", kind)

	docs, err := loader.Load(ctx, f)
	if err != nil {
		return nil, readError(f, kind, err)
	}
	for i := range docs {
		docs[i].Text = textfix.Fix(docs[i].Text)
	}

	p.logger.Debug("document loaded", "filename", f.Filename, "kind", kind, "documents", len(docs))
	return docs, nil
}

// LoadFile loads the file at path, using its base name as the filename.
func (p *Pipeline) LoadFile(ctx context.Context, path, contentType string) ([]Document, error) {
	return p.Load(ctx, File{Filename: filepath.Base(path), ContentType: contentType, Path: path})
}

// SupportedFormats returns the file extensions with a dedicated loader.
// Any other file is read as text.
func SupportedFormats() []string {
	return []string{"pdf", "csv", "rst", "xml", "htm", "html", "md", "epub", "docx", "xls", "xlsx", "ppt", "pptx", "msg"}
}
