// CLAUDE:SUMMARY PDF extraction quality scoring: flags pages that likely need OCR or lost their figures.
package docpipe

import (
	"regexp"
	"strings"
	"unicode"
)

// ExtractionQuality captures metrics about PDF text extraction quality.
type ExtractionQuality struct {
	PageCount       int     `json:"page_count"`
	CharsPerPage    float64 `json:"chars_per_page"`
	PrintableRatio  float64 `json:"printable_ratio"`
	WordlikeRatio   float64 `json:"wordlike_ratio"`
	HasImageStreams bool    `json:"has_image_streams"`
	VisualRefCount  int     `json:"visual_ref_count"`
}

// NeedsOCR reports whether the text layer is too thin or too garbled to be
// trusted, which usually means a scanned document.
func (q *ExtractionQuality) NeedsOCR() bool {
	return (q.CharsPerPage < 50 && q.HasImageStreams) || q.PrintableRatio < 0.85
}

// HasVisualGap reports whether the text points at figures or tables that
// only exist as images.
func (q *ExtractionQuality) HasVisualGap() bool {
	return q.VisualRefCount > 0 && q.HasImageStreams
}

// measureQuality scores the concatenated text of a PDF.
func measureQuality(text string, pageCount int, hasImages bool) *ExtractionQuality {
	q := &ExtractionQuality{
		PageCount:       pageCount,
		PrintableRatio:  computePrintableRatio(text),
		WordlikeRatio:   computeWordlikeRatio(text),
		HasImageStreams: hasImages,
		VisualRefCount:  countVisualRefs(text),
	}
	if pageCount > 0 {
		q.CharsPerPage = float64(len([]rune(text))) / float64(pageCount)
	}
	return q
}

// annotate copies the verdicts into document metadata.
func (q *ExtractionQuality) annotate(meta map[string]any) {
	meta["needs_ocr"] = q.NeedsOCR()
	meta["visual_gap"] = q.HasVisualGap()
	meta["printable_ratio"] = q.PrintableRatio
}

// computePrintableRatio returns the share of printable runes in text.
// Private-use runes, U+FFFD and control characters other than \n\r\t count
// as garbage.
func computePrintableRatio(text string) float64 {
	if text == "" {
		return 1.0
	}
	total, printable := 0, 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	switch {
	case r >= 0xE000 && r <= 0xF8FF:
		return true
	case r == 0xFFFD:
		return true
	case r < 0x0020 && r != '\n' && r != '\r' && r != '\t':
		return true
	}
	return false
}

// computeWordlikeRatio returns the share of tokens 2 to 15 runes long.
func computeWordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		if n := len([]rune(f)); n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}

var visualRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(voir|cf\.?|see|refer\s+to)\s+(la\s+)?(figure|fig\.?|tableau|table|sch[eé]ma|schema|image|illustration|graphique|graph|diagramme|diagram)\s*\d`),
	regexp.MustCompile(`(?i)(figure|fig\.?|tableau|table)\s+\d+`),
}

func countVisualRefs(text string) int {
	count := 0
	for _, pat := range visualRefPatterns {
		count += len(pat.FindAllString(text, -1))
	}
	return count
}
