package accounts

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeUsername derives the canonical lookup key for a username:
// NFKC normalization, full Unicode case folding, and collapsing of all
// interior whitespace runs to a single space with outer whitespace
// trimmed.
//
// NFKC is deliberately destructive: it folds width variants and
// confusable compatibility forms so that visually equivalent names map to
// the same key (see unicode.org/reports/tr36). Creation and lookup must
// both go through this function; a key derived any other way will
// silently miss accounts it provisioned itself.
func NormalizeUsername(username string) string {
	folded := cases.Fold().String(norm.NFKC.String(username))
	return strings.Join(strings.Fields(folded), " ")
}
