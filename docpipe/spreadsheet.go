// CLAUDE:SUMMARY Spreadsheet loader (excelize): one document per non-empty sheet rendered as a fixed-width table.
package docpipe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// SpreadsheetLoader reads every sheet of an .xlsx workbook in declared
// order. The first row of a sheet is its header; columns whose header is
// empty or starts with "Unnamed" are dropped. Sheets left with no rows or
// no columns produce no document.
type SpreadsheetLoader struct {
	MaxRows   int // data rows read per sheet, 0 = all
	ChunkSize int // data rows rendered per sheet, default 1000
	Logger    *slog.Logger
}

// Load implements Loader. A sheet that fails to read is logged and
// skipped; only a workbook that cannot be opened fails the call.
func (l *SpreadsheetLoader) Load(ctx context.Context, f File) ([]Document, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	chunk := l.ChunkSize
	if chunk <= 0 {
		chunk = 1000
	}

	wb, err := excelize.OpenFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var docs []Document
	for _, name := range wb.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tbl, err := l.readSheet(wb, name)
		if err != nil {
			logger.Warn("docpipe: skipping unreadable sheet", "source", f.Path, "sheet", name, "error", err)
			continue
		}
		if len(tbl.rows) == 0 || len(tbl.header) == 0 {
			logger.Info("docpipe: skipping empty sheet", "source", f.Path, "sheet", name)
			continue
		}

		shown := tbl.rows
		if len(shown) > chunk {
			shown = shown[:chunk]
		}
		meta := sourceMeta(f)
		meta["sheet_name"] = name
		meta["row_count"] = len(tbl.rows)
		meta["column_count"] = len(tbl.header)
		docs = append(docs, Document{
			Text:     "Sheet: " + name + "\n" + renderTable(tbl.header, shown),
			Metadata: meta,
		})
	}
	return docs, nil
}

type sheetTable struct {
	header []string
	rows   [][]string
}

// readSheet streams the rows of one sheet, keeping only named columns.
// MaxRows bounds the data rows read, blank ones included; blank rows are
// then dropped from the table.
func (l *SpreadsheetLoader) readSheet(wb *excelize.File, name string) (*sheetTable, error) {
	it, err := wb.Rows(name)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	tbl := &sheetTable{}
	var keep []int
	first := true
	read := 0
	for it.Next() {
		cols, err := it.Columns()
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			for i, h := range cols {
				h = strings.TrimSpace(h)
				if h == "" || strings.HasPrefix(h, "Unnamed") {
					continue
				}
				keep = append(keep, i)
				tbl.header = append(tbl.header, h)
			}
			continue
		}

		row := make([]string, len(keep))
		blank := true
		for j, i := range keep {
			if i < len(cols) {
				row[j] = cols[i]
				if strings.TrimSpace(cols[i]) != "" {
					blank = false
				}
			}
		}
		if !blank {
			tbl.rows = append(tbl.rows, row)
		}
		read++
		if l.MaxRows > 0 && read >= l.MaxRows {
			break
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return tbl, nil
}

// renderTable lays out header and rows as right-aligned fixed-width
// columns separated by two spaces, without a row index.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, c := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cellText(c)))
		}
	}

	var sb strings.Builder
	writeLine := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				sb.WriteString("  ")
			}
			c = cellText(c)
			sb.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c)))
			sb.WriteString(c)
		}
	}
	writeLine(header)
	for _, row := range rows {
		sb.WriteByte('\n')
		writeLine(row)
	}
	return sb.String()
}

// cellText flattens multi-line cells so every row stays on one line.
func cellText(c string) string {
	if strings.ContainsAny(c, "\r\n") {
		c = strings.Join(strings.Fields(c), " ")
	}
	return c
}
