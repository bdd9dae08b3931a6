// CLAUDE:SUMMARY Configuration struct and defaults for the docpipe loader pipeline.
package docpipe

import (
	"log/slog"
	"time"
)

// Config configures the document pipeline. It is passed to New and copied;
// nothing in the package reads global state.
type Config struct {
	// MaxFileSize is the maximum file size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// PDFExtractImages adds per-page image presence and extraction quality
	// markers to PDF documents. No OCR is performed.
	PDFExtractImages bool `json:"pdf_extract_images" yaml:"pdf_extract_images"`

	RemoteExtraction RemoteConfig      `json:"remote_extraction" yaml:"remote_extraction"`
	Spreadsheet      SpreadsheetConfig `json:"spreadsheet" yaml:"spreadsheet"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// RemoteConfig points the pipeline at an Apache Tika server.
type RemoteConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Endpoint string        `json:"endpoint" yaml:"endpoint"` // e.g. http://localhost:9998
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`   // default: 60s
}

// SpreadsheetConfig bounds how much of each sheet is read and rendered.
type SpreadsheetConfig struct {
	MaxRows   int `json:"max_rows" yaml:"max_rows"`     // 0 = all rows
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"` // rows rendered per sheet, default 1000
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.RemoteExtraction.Timeout <= 0 {
		c.RemoteExtraction.Timeout = 60 * time.Second
	}
	if c.Spreadsheet.ChunkSize <= 0 {
		c.Spreadsheet.ChunkSize = 1000
	}
	if c.Spreadsheet.MaxRows < 0 {
		c.Spreadsheet.MaxRows = 0
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// remoteActive reports whether remote extraction can be used.
func (c *Config) remoteActive() bool {
	return c.RemoteExtraction.Enabled && c.RemoteExtraction.Endpoint != ""
}
