package docpipe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func remotePipeline(url string) *Pipeline {
	return New(Config{RemoteExtraction: RemoteConfig{Enabled: true, Endpoint: url, Timeout: 5 * time.Second}})
}

func TestRemote_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/tika/text" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("content-type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "%PDF-fake" {
			t.Errorf("body = %q", body)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"X-TIKA:content":"extracted text","Content-Type":"application/pdf; version=1.4"}`)
	}))
	defer srv.Close()

	path := writeFile(t, "report.pdf", []byte("%PDF-fake"))
	doc := loadOne(t, remotePipeline(srv.URL+"/"), File{Filename: "report.pdf", ContentType: "application/pdf", Path: path})
	if doc.Text != "extracted text" {
		t.Fatalf("text = %q", doc.Text)
	}
	if doc.Metadata["Content-Type"] != "application/pdf; version=1.4" {
		t.Fatalf("Content-Type = %v", doc.Metadata["Content-Type"])
	}
	if doc.Metadata["source"] != path {
		t.Fatalf("source = %v", doc.Metadata["source"])
	}
}

func TestRemote_NoContentPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "" {
			t.Errorf("unexpected content-type %q", r.Header.Get("Content-Type"))
		}
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	path := writeFile(t, "scan.tiff", []byte("II*"))
	doc := loadOne(t, remotePipeline(srv.URL), File{Filename: "scan.tiff", Path: path})
	if doc.Text != NoTextPlaceholder {
		t.Fatalf("text = %q", doc.Text)
	}
	if _, ok := doc.Metadata["Content-Type"]; ok {
		t.Fatalf("unexpected Content-Type metadata: %v", doc.Metadata)
	}
}

func TestRemote_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "tika exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := writeFile(t, "report.pdf", []byte("x"))
	_, err := remotePipeline(srv.URL).Load(context.Background(), File{Filename: "report.pdf", Path: path})
	var ese *ExtractionServiceError
	if !errors.As(err, &ese) {
		t.Fatalf("expected ExtractionServiceError, got %v", err)
	}
	if ese.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", ese.StatusCode)
	}
	if ese.Reason != "Internal Server Error: tika exploded" {
		t.Errorf("reason = %q", ese.Reason)
	}
}

func TestRemote_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `plain text, not json`)
	}))
	defer srv.Close()

	path := writeFile(t, "report.pdf", []byte("x"))
	_, err := remotePipeline(srv.URL).Load(context.Background(), File{Filename: "report.pdf", Path: path})
	var ese *ExtractionServiceError
	if !errors.As(err, &ese) || ese.StatusCode != http.StatusOK {
		t.Fatalf("expected ExtractionServiceError with status 200, got %v", err)
	}
}

func TestRemote_SkipsSourceFiles(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `{"X-TIKA:content":"remote"}`)
	}))
	defer srv.Close()

	pipe := remotePipeline(srv.URL)
	path := writeFile(t, "main.py", []byte("print('hi')\n"))
	doc := loadOne(t, pipe, File{Filename: "main.py", Path: path})
	if doc.Text != "print('hi')\n" {
		t.Fatalf("text = %q", doc.Text)
	}
	if calls.Load() != 0 {
		t.Fatalf("remote service called %d times for a source file", calls.Load())
	}
}

func TestRemote_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	path := writeFile(t, "report.pdf", []byte("x"))
	_, err := remotePipeline(url).Load(context.Background(), File{Filename: "report.pdf", Path: path})
	var ese *ExtractionServiceError
	if !errors.As(err, &ese) || ese.StatusCode != 0 {
		t.Fatalf("expected transport ExtractionServiceError, got %v", err)
	}
}
