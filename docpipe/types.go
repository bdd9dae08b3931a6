// CLAUDE:SUMMARY Defines Kind, File, Document and the Loader capability shared by every format adapter.
package docpipe

import "context"

// Kind tags the loader selected for a file. The set is closed: Classify
// only ever returns one of the constants below.
type Kind string

const (
	KindRemote      Kind = "remote"
	KindPDF         Kind = "pdf"
	KindCSV         Kind = "csv"
	KindRST         Kind = "rst"
	KindXML         Kind = "xml"
	KindHTML        Kind = "html"
	KindMarkdown    Kind = "markdown"
	KindEPUB        Kind = "epub"
	KindDocx        Kind = "docx"
	KindSpreadsheet Kind = "spreadsheet"
	KindSlides      Kind = "slides"
	KindMSG         Kind = "msg"
	KindText        Kind = "text"
)

// File describes one upload for the duration of a single Load call.
type File struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"` // declared by the uploader, may be empty
	Path        string `json:"path"`                   // where the bytes live on disk
}

// Document is one unit of extracted text. Metadata always carries "source".
type Document struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// Loader extracts documents from a file. Every format adapter implements it.
type Loader interface {
	Load(ctx context.Context, f File) ([]Document, error)
}

// LoaderFunc adapts a plain function to Loader.
type LoaderFunc func(ctx context.Context, f File) ([]Document, error)

// Load calls fn.
func (fn LoaderFunc) Load(ctx context.Context, f File) ([]Document, error) { return fn(ctx, f) }

func sourceMeta(f File) map[string]any {
	return map[string]any{"source": f.Path}
}
