// CLAUDE:SUMMARY Maps a filename + declared content type to a loader Kind; rule order is part of the contract.
package docpipe

import (
	"mime"
	"strings"
)

// sourceExtensions are extensions read as plain text, including when remote
// extraction is enabled. "msg" is listed here too, but the table rule for
// Outlook messages runs first when remote extraction is off.
var sourceExtensions = toSet(
	"go", "py", "java", "sh", "bat", "ps1", "cmd", "js", "ts", "css",
	"cpp", "hpp", "h", "c", "cs", "sql", "log", "ini", "pl", "pm",
	"r", "dart", "dockerfile", "env", "php", "hs", "hsc", "lua", "nginxconf", "conf",
	"m", "mm", "plsql", "perl", "rb", "rs", "db2", "scala", "bash", "swift",
	"vue", "svelte", "msg", "ex", "exs", "erl", "tsx", "jsx", "lhs",
)

const (
	ctEPUB = "application/epub+zip"
	ctDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ctXLS  = "application/vnd.ms-excel"
	ctXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ctPPT  = "application/vnd.ms-powerpoint"
	ctPPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

func toSet(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

// Extension returns the lower-cased text after the last dot of filename.
// A name without a dot is its own extension, so "Dockerfile" yields
// "dockerfile".
func Extension(filename string) string {
	name := filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// mediaType strips parameters and lower-cases a declared content type.
func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// IsSourceExtension reports whether ext (without dot) is read as plain text.
func IsSourceExtension(ext string) bool {
	_, ok := sourceExtensions[strings.ToLower(ext)]
	return ok
}

func isTextLike(ext, ct string) bool {
	return IsSourceExtension(ext) || strings.HasPrefix(ct, "text/")
}

// Classify selects the loader for f. Rules are evaluated in order and the
// first match wins; extension-specific rules run before the generic
// "looks like text" rule. It never fails: unknown files fall back to text.
func (p *Pipeline) Classify(f File) Kind {
	ext := Extension(f.Filename)
	ct := mediaType(f.ContentType)

	if p.cfg.remoteActive() {
		if isTextLike(ext, ct) {
			return KindText
		}
		return KindRemote
	}

	switch {
	case ext == "pdf":
		return KindPDF
	case ext == "csv":
		return KindCSV
	case ext == "rst":
		return KindRST
	case ext == "xml":
		return KindXML
	case ext == "htm" || ext == "html":
		return KindHTML
	case ext == "md":
		return KindMarkdown
	case ct == ctEPUB:
		return KindEPUB
	case ct == ctDocx || ext == "docx":
		return KindDocx
	case ct == ctXLS || ct == ctXLSX || ext == "xls" || ext == "xlsx":
		return KindSpreadsheet
	case ct == ctPPT || ct == ctPPTX || ext == "ppt" || ext == "pptx":
		return KindSlides
	case ext == "msg":
		return KindMSG
	case isTextLike(ext, ct):
		return KindText
	}
	return KindText
}

// SupportedKinds returns every Kind the pipeline can dispatch to.
func SupportedKinds() []Kind {
	return []Kind{
		KindPDF, KindCSV, KindRST, KindXML, KindHTML, KindMarkdown, KindEPUB,
		KindDocx, KindSpreadsheet, KindSlides, KindMSG, KindText, KindRemote,
	}
}
