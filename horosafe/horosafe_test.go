package horosafe

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestSafePath(t *testing.T) {
	base := t.TempDir()

	got, err := SafePath(base, "report.pdf")
	if err != nil {
		t.Fatalf("SafePath: %v", err)
	}
	if got != filepath.Join(base, "report.pdf") {
		t.Fatalf("SafePath = %q", got)
	}

	for _, name := range []string{"report..final.txt", "v1..2.csv", "notes...md"} {
		got, err := SafePath(base, name)
		if err != nil || got != filepath.Join(base, name) {
			t.Errorf("SafePath(%q) = %q, %v", name, got, err)
		}
	}

	for _, bad := range []string{"", "../etc/passwd", "a/../../b", "..\\windows", "/", ".."} {
		if _, err := SafePath(base, bad); !errors.Is(err, ErrPathTraversal) {
			t.Errorf("SafePath(%q): expected ErrPathTraversal, got %v", bad, err)
		}
	}
}

func TestValidateEndpoint(t *testing.T) {
	ok := []string{"http://localhost:9998", "https://tika.example.com/", "http://10.0.0.5:9998"}
	for _, u := range ok {
		if err := ValidateEndpoint(u); err != nil {
			t.Errorf("ValidateEndpoint(%q): %v", u, err)
		}
	}
	if err := ValidateEndpoint("ftp://host/"); !errors.Is(err, ErrUnsafeScheme) {
		t.Errorf("ftp: expected ErrUnsafeScheme, got %v", err)
	}
	if err := ValidateEndpoint("http://"); err == nil {
		t.Error("expected error for missing host")
	}
}

func TestLimitedReadAll(t *testing.T) {
	data, err := LimitedReadAll(strings.NewReader("hello"), 5)
	if err != nil || string(data) != "hello" {
		t.Fatalf("LimitedReadAll = %q, %v", data, err)
	}
	if _, err := LimitedReadAll(strings.NewReader("hello!"), 5); !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("expected ErrResponseTooLarge, got %v", err)
	}
}
