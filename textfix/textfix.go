// CLAUDE:SUMMARY Repairs mis-encoded text (mojibake, terminal escapes, stray controls) to a stable fixpoint.
// Package textfix repairs text that went through a wrong character-encoding
// round trip before it reached us.
//
// The main case is UTF-8 bytes that were decoded as Windows-1252 (or
// Latin-1), which turns "café" into "cafÃ©" and "it’s" into "itâ€™s".
// Fix reverses that, strips ANSI terminal escapes and stray control
// characters, and NFC-normalises the result. Text that is already valid is
// returned unchanged.
//
//	clean := textfix.Fix(raw)
package textfix

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// ansiEscapeRe matches CSI terminal escape sequences (colours, cursor moves).
var ansiEscapeRe = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

// Fix returns text with encoding damage repaired. It never fails and is
// idempotent: Fix(Fix(s)) == Fix(s).
func Fix(text string) string {
	if text == "" {
		return text
	}
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	// Every pass that changes the text drops escapes or controls, or folds a
	// mojibake run, so it shrinks the text; len(text) passes always reach the
	// fixpoint.
	for range len(text) + 1 {
		next := fixOnce(text)
		if next == text {
			return text
		}
		text = next
	}
	return text
}

func fixOnce(text string) string {
	text = ansiEscapeRe.ReplaceAllString(text, "")
	text = removeControls(text)
	text = fixMojibake(text)
	if !norm.NFC.IsNormalString(text) {
		text = norm.NFC.String(text)
	}
	return text
}

// removeControls drops C0 control characters and byte-order marks,
// keeping tab, newline and carriage return.
func removeControls(text string) string {
	if strings.IndexFunc(text, isJunkRune) < 0 {
		return text
	}
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if isJunkRune(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isJunkRune(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return false
	case r < 0x20 || r == 0x7f:
		return true
	case r == 0xFEFF:
		return true
	}
	return false
}

// fixMojibake scans for runs of non-ASCII runes that all map to single
// Windows-1252 bytes and re-decodes each run as UTF-8. A run is replaced
// only when its bytes form valid UTF-8, so genuine accented text ("é" alone
// encodes to 0xE9, an invalid UTF-8 sequence) is left alone.
func fixMojibake(text string) string {
	var sb strings.Builder
	changed := false
	runStart := -1

	flush := func(end int) {
		if runStart < 0 {
			return
		}
		run := text[runStart:end]
		if fixed, ok := redecode(run); ok {
			sb.WriteString(fixed)
			changed = true
		} else {
			sb.WriteString(run)
		}
		runStart = -1
	}

	for i, r := range text {
		if r >= 0x80 {
			if _, ok := cp1252Byte(r); ok {
				if runStart < 0 {
					runStart = i
				}
				continue
			}
		}
		flush(i)
		sb.WriteRune(r)
	}
	flush(len(text))

	if !changed {
		return text
	}
	return sb.String()
}

// redecode maps each rune of run back to its Windows-1252 byte and reports
// whether the bytes are valid UTF-8 that differs from run.
func redecode(run string) (string, bool) {
	buf := make([]byte, 0, len(run))
	for _, r := range run {
		b, ok := cp1252Byte(r)
		if !ok {
			return "", false
		}
		buf = append(buf, b)
	}
	if !utf8.Valid(buf) {
		return "", false
	}
	fixed := string(buf)
	if fixed == run || strings.ContainsRune(fixed, utf8.RuneError) {
		return "", false
	}
	return fixed, true
}

// cp1252Byte encodes r as a single Windows-1252 byte. The five code points
// Windows-1252 leaves undefined (0x81, 0x8D, 0x8F, 0x90, 0x9D) fall back to
// their Latin-1 identity, which is how browsers and Python decoders emit them.
func cp1252Byte(r rune) (byte, bool) {
	if b, ok := charmap.Windows1252.EncodeRune(r); ok {
		return b, true
	}
	switch r {
	case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
		return byte(r), true
	}
	return 0, false
}
