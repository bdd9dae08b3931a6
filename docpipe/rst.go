package docpipe

import (
	"context"
	"os"
	"strings"
)

// RST element categories, as reported in the "category" metadata field.
const (
	CategoryTitle     = "Title"
	CategoryListItem  = "ListItem"
	CategoryNarrative = "NarrativeText"
)

// loadRST splits a reStructuredText file into elements and emits one
// document per element. Blocks are separated by blank lines; directives
// and comments (".. ") are skipped along with their indented bodies.
func loadRST(_ context.Context, f File) ([]Document, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(data, f.ContentType)
	if err != nil {
		return nil, err
	}

	var docs []Document
	for _, el := range rstElements(text) {
		meta := sourceMeta(f)
		meta["category"] = el.category
		docs = append(docs, Document{Text: el.text, Metadata: meta})
	}
	return docs, nil
}

type rstElement struct {
	category string
	text     string
}

func rstElements(text string) []rstElement {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var out []rstElement
	var block []string
	inDirective := false

	flush := func() {
		if len(block) > 0 {
			out = append(out, classifyRSTBlock(block)...)
		}
		block = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		indented := line[0] == ' ' || line[0] == '\t'
		if inDirective && indented {
			continue
		}
		inDirective = false
		if strings.HasPrefix(trimmed, "..") && !indented {
			flush()
			inDirective = true
			continue
		}
		block = append(block, line)
	}
	flush()
	return out
}

// classifyRSTBlock turns one blank-line separated block into elements.
func classifyRSTBlock(block []string) []rstElement {
	// Overlined title: ====, Title, ====
	if len(block) == 3 && isRSTAdornment(block[0]) && isRSTAdornment(block[2]) {
		return []rstElement{{CategoryTitle, strings.TrimSpace(block[1])}}
	}
	// Underlined title, possibly followed by text without a blank line.
	if len(block) >= 2 && isRSTAdornment(block[1]) && !isRSTAdornment(block[0]) {
		out := []rstElement{{CategoryTitle, strings.TrimSpace(block[0])}}
		if len(block) > 2 {
			out = append(out, classifyRSTBlock(block[2:])...)
		}
		return out
	}
	// A lone adornment line is a transition.
	if len(block) == 1 && isRSTAdornment(block[0]) {
		return nil
	}
	if isRSTListItem(block[0]) {
		return rstListItems(block)
	}

	parts := make([]string, 0, len(block))
	for _, l := range block {
		parts = append(parts, strings.TrimSpace(l))
	}
	return []rstElement{{CategoryNarrative, strings.Join(parts, " ")}}
}

func rstListItems(block []string) []rstElement {
	var out []rstElement
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, rstElement{CategoryListItem, strings.Join(cur, " ")})
		}
		cur = nil
	}
	for _, l := range block {
		if isRSTListItem(l) {
			flush()
			cur = append(cur, stripRSTBullet(strings.TrimSpace(l)))
			continue
		}
		cur = append(cur, strings.TrimSpace(l))
	}
	flush()
	return out
}

// isRSTAdornment reports whether line is a run of one repeated punctuation
// character, at least three long.
func isRSTAdornment(line string) bool {
	line = strings.TrimRight(line, " \t")
	if len(line) < 3 {
		return false
	}
	c := line[0]
	if !strings.ContainsRune("=-`:'\"~^_*+#<>.", rune(c)) {
		return false
	}
	for i := 1; i < len(line); i++ {
		if line[i] != c {
			return false
		}
	}
	return true
}

func isRSTListItem(line string) bool {
	t := strings.TrimLeft(line, " \t")
	if len(t) >= 2 && strings.ContainsRune("-*+", rune(t[0])) && t[1] == ' ' {
		return true
	}
	// Enumerated: "1. ", "2) ", "#. "
	i := 0
	for i < len(t) && t[i] >= '0' && t[i] <= '9' {
		i++
	}
	if i == 0 && strings.HasPrefix(t, "#") {
		i = 1
	}
	return i > 0 && i+1 < len(t) && (t[i] == '.' || t[i] == ')') && t[i+1] == ' '
}

func stripRSTBullet(t string) string {
	if _, rest, ok := strings.Cut(t, " "); ok {
		return strings.TrimSpace(rest)
	}
	return t
}
