package docpipe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPDF_PerPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.pdf")
	if err := os.WriteFile(path, buildRealTextPDF("Hello World from PDF extraction test"), 0644); err != nil {
		t.Fatal(err)
	}

	docs, err := New(Config{}).Load(context.Background(), File{Filename: "text.pdf", Path: path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected one document per page, got %d", len(docs))
	}
	if docs[0].Metadata["page"] != 0 {
		t.Errorf("page = %v, want 0", docs[0].Metadata["page"])
	}
	if _, ok := docs[0].Metadata["has_images"]; ok {
		t.Error("image markers should be off by default")
	}
	if !strings.Contains(docs[0].Text, "Hello World") {
		t.Logf("text: %q (pdfcpu may not decode minimal content streams)", docs[0].Text)
	}
}

func TestLoadPDF_ImageMarkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.pdf")
	if err := os.WriteFile(path, buildImageOnlyPDF(), 0644); err != nil {
		t.Fatal(err)
	}

	docs, err := New(Config{PDFExtractImages: true}).Load(context.Background(), File{Filename: "image.pdf", Path: path})
	if err != nil {
		// pdfcpu may reject the truncated JPEG stream during validation.
		if !strings.Contains(err.Error(), "pdfcpu") {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 page, got %d", len(docs))
	}
	// The empty page is kept so page numbering stays aligned.
	if docs[0].Text != "" {
		t.Errorf("text = %q, want empty", docs[0].Text)
	}
	if _, ok := docs[0].Metadata["has_images"].(bool); !ok {
		t.Errorf("has_images = %v", docs[0].Metadata["has_images"])
	}
	if docs[0].Metadata["has_images"] == true && docs[0].Metadata["needs_ocr"] != true {
		t.Errorf("image-only page not flagged for OCR: %v", docs[0].Metadata)
	}
}

func TestLoadPDF_NotAPDF(t *testing.T) {
	path := writeFile(t, "fake.pdf", []byte("not a pdf at all"))
	_, err := New(Config{}).Load(context.Background(), File{Filename: "fake.pdf", Path: path})
	if err == nil {
		t.Fatal("expected error")
	}
	fre, ok := err.(*FileReadError)
	if !ok || fre.Kind != KindPDF {
		t.Fatalf("expected pdf FileReadError, got %T %v", err, err)
	}
}

func TestExtractTextFromStream(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n72 720 Td\n(Hello\\040there) Tj\n[(Wor) -20 (ld)] TJ\nT*\n(next line) '\nET")
	got := extractTextFromStream(stream)
	if got != "Hello thereWorld next line" {
		t.Fatalf("got %q", got)
	}
}

// --- PDF test helpers ---

// buildRealTextPDF creates a valid PDF with proper xref offsets.
func buildRealTextPDF(text string) []byte {
	escaped := strings.ReplaceAll(text, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "(", `\(`)
	escaped = strings.ReplaceAll(escaped, ")", `\)`)

	stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + escaped + ") Tj\nET"
	streamLen := len(stream)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")

	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Length ")
	b.WriteString(pdfItoa(streamLen))
	b.WriteString(" >>\nstream\n")
	b.WriteString(stream)
	b.WriteString("\nendstream\nendobj\n")

	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefOffset := b.Len()
	b.WriteString("xref\n0 6\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		b.WriteString(pdfPadOffset(offsets[i]))
		b.WriteString(" 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n")
	b.WriteString(pdfItoa(xrefOffset))
	b.WriteString("\n%%EOF\n")

	return []byte(b.String())
}

func buildImageOnlyPDF() []byte {
	imgData := "\xff\xd8\xff\xe0"

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << /Im1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n")

	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Length ")
	b.WriteString(pdfItoa(len(imgData)))
	b.WriteString(" >>\nstream\n")
	b.WriteString(imgData)
	b.WriteString("\nendstream\nendobj\n")

	drawStream := "q 100 0 0 100 72 692 cm /Im1 Do Q"
	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Length ")
	b.WriteString(pdfItoa(len(drawStream)))
	b.WriteString(" >>\nstream\n")
	b.WriteString(drawStream)
	b.WriteString("\nendstream\nendobj\n")

	xrefOffset := b.Len()
	b.WriteString("xref\n0 6\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		b.WriteString(pdfPadOffset(offsets[i]))
		b.WriteString(" 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n")
	b.WriteString(pdfItoa(xrefOffset))
	b.WriteString("\n%%EOF\n")
	return []byte(b.String())
}

func pdfItoa(n int) string {
	if n == 0 {
		return "0"
	}
	s := ""
	for n > 0 {
		s = string(rune('0'+n%10)) + s
		n /= 10
	}
	return s
}

func pdfPadOffset(n int) string {
	s := pdfItoa(n)
	for len(s) < 10 {
		s = "0" + s
	}
	return s
}
