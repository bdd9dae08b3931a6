// Package horosafe provides small safety primitives used at the service
// boundary: bounded reads of remote responses, upload path containment and
// endpoint URL validation.
package horosafe

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
)

// MaxResponseBody is the default cap for HTTP response body reads (1 MiB).
const MaxResponseBody int64 = 1 << 20

// ErrPathTraversal is returned when a user-supplied path escapes its base.
var ErrPathTraversal = errors.New("horosafe: path traversal detected")

// ErrUnsafeScheme is returned when a URL uses a non-HTTP(S) scheme.
var ErrUnsafeScheme = errors.New("horosafe: only http and https schemes are allowed")

// ErrResponseTooLarge is returned by LimitedReadAll when the limit is exceeded.
var ErrResponseTooLarge = errors.New("horosafe: response too large")

// SafePath validates that joining base and userInput does not escape base.
// Any ".." path element is rejected; dots inside a name ("v1..2.csv") are
// not. Returns the cleaned path or ErrPathTraversal.
func SafePath(base, userInput string) (string, error) {
	if userInput == "" {
		return "", ErrPathTraversal
	}
	for _, elem := range strings.FieldsFunc(userInput, func(r rune) bool { return r == '/' || r == '\\' }) {
		if elem == ".." {
			return "", ErrPathTraversal
		}
	}
	cleaned := filepath.Join(base, filepath.Clean("/"+userInput))
	if !strings.HasPrefix(cleaned, filepath.Clean(base)+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return cleaned, nil
}

// ValidateEndpoint checks that rawURL is an absolute http(s) URL with a host.
// Loopback and private hosts are accepted: extraction services usually run
// next to the ingesting process.
func ValidateEndpoint(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("horosafe: invalid URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsafeScheme
	}
	if u.Hostname() == "" {
		return fmt.Errorf("horosafe: URL has no host")
	}
	return nil
}

// LimitedReadAll reads at most maxBytes from r. Returns ErrResponseTooLarge
// if the limit is exceeded.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	lr := io.LimitReader(r, maxBytes+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrResponseTooLarge, maxBytes)
	}
	return data, nil
}
