// CLAUDE:SUMMARY Remote extraction loader: PUTs the file to an Apache Tika server and maps its JSON reply to one document.
package docpipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/docload/horosafe"
)

// NoTextPlaceholder is the document text when the service found no content.
const NoTextPlaceholder = "<No text content found>"

// remoteMaxResponse caps the JSON reply; Tika inlines the full text.
const remoteMaxResponse int64 = 64 << 20

// RemoteLoader delegates extraction to an Apache Tika server. One call is
// one HTTP round trip; there is no retry.
type RemoteLoader struct {
	Endpoint string
	Client   *http.Client
}

// NewRemoteLoader returns a loader for the Tika server at endpoint with a
// dedicated client bounded by timeout.
func NewRemoteLoader(endpoint string, timeout time.Duration) *RemoteLoader {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RemoteLoader{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (l *RemoteLoader) url() string {
	u := l.Endpoint
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u + "tika/text"
}

// Load implements Loader. The declared content type, when known, is sent
// with the request and reported in metadata; the service's own
// Content-Type wins when it returns one.
func (l *RemoteLoader) Load(ctx context.Context, f File) ([]Document, error) {
	if err := horosafe.ValidateEndpoint(l.Endpoint); err != nil {
		return nil, &ExtractionServiceError{Endpoint: l.Endpoint, Reason: err.Error(), Err: err}
	}

	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, &FileReadError{Path: f.Path, Kind: KindRemote, Err: err}
	}
	defer fh.Close()
	info, err := fh.Stat()
	if err != nil {
		return nil, &FileReadError{Path: f.Path, Kind: KindRemote, Err: err}
	}

	target := l.url()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, fh)
	if err != nil {
		return nil, &ExtractionServiceError{Endpoint: target, Reason: err.Error(), Err: err}
	}
	req.ContentLength = info.Size()
	req.Header.Set("Accept", "application/json")
	if f.ContentType != "" {
		req.Header.Set("Content-Type", f.ContentType)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &ExtractionServiceError{Endpoint: target, Reason: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := horosafe.LimitedReadAll(resp.Body, remoteMaxResponse)
	if err != nil {
		return nil, &ExtractionServiceError{Endpoint: target, StatusCode: resp.StatusCode, Reason: err.Error(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := http.StatusText(resp.StatusCode)
		if s := strings.TrimSpace(string(body)); s != "" && len(s) <= 512 {
			reason += ": " + s
		}
		return nil, &ExtractionServiceError{Endpoint: target, StatusCode: resp.StatusCode, Reason: reason}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		if err == nil {
			err = errors.New("response is not a JSON object")
		}
		return nil, &ExtractionServiceError{
			Endpoint:   target,
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("malformed JSON: %v", err),
			Err:        err,
		}
	}

	text := NoTextPlaceholder
	if s, ok := raw["X-TIKA:content"].(string); ok {
		text = s
	}
	meta := sourceMeta(f)
	if f.ContentType != "" {
		meta["Content-Type"] = f.ContentType
	}
	if ct, ok := raw["Content-Type"]; ok && ct != nil {
		meta["Content-Type"] = ct
	}
	return []Document{{Text: text, Metadata: meta}}, nil
}
