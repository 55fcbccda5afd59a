package names

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tokenSortThreshold is the minimum fuzzy token-sort score, out of 100,
// at which two names are declared equivalent.
const tokenSortThreshold = 90

// VariantLookup returns the set of given names considered equivalent to
// a lowercase given name, e.g. "tom" -> {"thomas", "tommy"}. A name with
// no known variants yields an empty set, not an error.
type VariantLookup interface {
	Variants(ctx context.Context, given string) ([]string, error)
}

// Matcher decides whether two free-text person names denote the same
// individual, tolerating honorifics, nickname variation and spelling
// drift. Civic data entry is inconsistent enough that exact string
// equality misses too many true matches.
type Matcher struct {
	lookup VariantLookup
	logger *slog.Logger
}

// NewMatcher creates a Matcher. lookup may be nil, in which case only
// literal tokens are compared.
func NewMatcher(lookup VariantLookup, logger *slog.Logger) *Matcher {
	return &Matcher{
		lookup: lookup,
		logger: logger.With("component", "names"),
	}
}

// Equivalent reports whether candidate and query refer to the same
// person. Candidate tokens are expanded through the variant lookup and
// each substituted form is compared against the query by fuzzy
// token-sort similarity and by double metaphone over the name's sorted
// characters, which makes the phonetic path insensitive to first/last
// name order swaps. A failed variant lookup degrades to the literal
// token; it reduces recall, never availability.
func (m *Matcher) Equivalent(ctx context.Context, candidate, query string) bool {
	cand := normalizeName(candidate)
	qry := normalizeName(query)
	if cand == "" || qry == "" {
		return false
	}
	if cand == qry {
		return true
	}

	tokens := strings.Fields(cand)
	for i, token := range tokens {
		for _, variant := range m.variantsFor(ctx, token) {
			substituted := substitute(tokens, i, variant)
			if fuzzy.TokenSortRatio(substituted, qry) >= tokenSortThreshold {
				return true
			}
			if phoneticMatch(substituted, qry) {
				return true
			}
		}
	}
	return false
}

func (m *Matcher) variantsFor(ctx context.Context, token string) []string {
	variants := []string{token}
	// initials are not expanded
	if len(token) < 2 || m.lookup == nil {
		return variants
	}

	found, err := m.lookup.Variants(ctx, token)
	if err != nil {
		m.logger.Debug("variant lookup failed, using literal token",
			"token", token,
			"error", err,
		)
		return variants
	}
	for _, v := range found {
		v = normalizeName(v)
		if v != "" && v != token {
			variants = append(variants, v)
		}
	}
	return variants
}

func substitute(tokens []string, i int, variant string) string {
	out := make([]string, len(tokens))
	copy(out, tokens)
	out[i] = variant
	return strings.Join(out, " ")
}

// phoneticMatch compares the double metaphone encodings of both names'
// sorted letters. Equivalence when either primary key matches the
// other's primary or secondary key.
func phoneticMatch(a, b string) bool {
	p1, s1 := matchr.DoubleMetaphone(sortLetters(a))
	p2, s2 := matchr.DoubleMetaphone(sortLetters(b))
	if p1 == "" || p2 == "" {
		return false
	}
	return p1 == p2 || p1 == s2 || p2 == s1
}

func sortLetters(s string) string {
	letters := []rune(strings.ReplaceAll(s, " ", ""))
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	return string(letters)
}

var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// normalizeName reduces a name to lowercase ASCII letters and single
// spaces: diacritics folded, titles' punctuation and digits dropped,
// whitespace collapsed.
func normalizeName(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
