// Package filename normalizes output names before they are handed to a
// transport for delivery.
package filename

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameLen bounds delivered file names in bytes; chat platforms and the
// filesystems receivers save to commonly reject longer names.
const MaxNameLen = 120

// unsafeRe matches characters rejected by at least one platform a delivered
// file may be saved on.
var unsafeRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// dashRuns collapses runs of separator characters left behind by replacement.
var dashRuns = regexp.MustCompile(`[-_]{2,}`)

// Sanitize normalizes an upload display name. Unsafe characters and
// whitespace become dashes, separator runs collapse, and leading or trailing
// dashes and dots are stripped so the name cannot come out hidden. Names
// over MaxNameLen bytes are truncated with the extension kept intact, so the
// container type stays visible to the receiver. Returns "" when nothing
// usable remains.
func Sanitize(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}

	s = unsafeRe.ReplaceAllString(s, "-")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return '-'
		}
		return r
	}, s)
	s = dashRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-.")

	if len(s) <= MaxNameLen {
		return s
	}

	ext := filepath.Ext(s)
	if len(ext) >= MaxNameLen {
		ext = ""
	}
	stem := s[:MaxNameLen-len(ext)]
	// The byte cut may land inside a UTF-8 sequence.
	for len(stem) > 0 && !utf8.ValidString(stem) {
		stem = stem[:len(stem)-1]
	}
	stem = strings.TrimRight(stem, "-.")
	return stem + ext
}
