package ingestion

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Simplify trims leading and trailing whitespace, collapses runs of
// horizontal whitespace (space, tab, vertical tab) into a single space,
// unifies all line break variants (CR, LF, FF, CRLF) into a single
// newline, and NFC-normalizes so multi-byte characters round-trip
// exactly. Simplify is idempotent.
func Simplify(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))

	inRun := false
	runHasBreak := false
	flush := func() {
		if !inRun {
			return
		}
		if runHasBreak {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
		inRun = false
		runHasBreak = false
	}

	for _, r := range s {
		if unicode.IsSpace(r) {
			inRun = true
			if r == '\n' || r == '\r' || r == '\f' {
				runHasBreak = true
			}
			continue
		}
		flush()
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

// Reduce removes all nil entries from items. When collapse is true an
// empty result becomes nil, since downstream consumers treat "no items"
// and "field not applicable" identically; collapse=false keeps a real,
// possibly empty, slice for callers in list contexts.
func Reduce[T any](items []*T, collapse bool) []*T {
	filtered := make([]*T, 0, len(items))
	for _, item := range items {
		if item != nil {
			filtered = append(filtered, item)
		}
	}
	if collapse && len(filtered) == 0 {
		return nil
	}
	return filtered
}
