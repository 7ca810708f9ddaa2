package decoder

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// space matches every rune isSpace accepts.
const space = `[\t\n\x{0B}\f\r \x{1C}-\x{1F}\x{85}\p{Z}]`

var (
	spaceRunPattern  = regexp.MustCompile(space + `+`)
	interTagPattern  = regexp.MustCompile(`>` + space + `<`)
	metaCharPattern  = regexp.MustCompile(space + `*([\[\]{}()|^$*+?.\\])` + space + `*`)
	emptyPairPattern = regexp.MustCompile(`<([a-z][a-z0-9]*)[^>]*>` + space + `*</([a-z][a-z0-9]*)>`)
)

// Minify applies the textual cleanup chain to rendered HTML until the result
// stops changing:
//
//  1. collapse whitespace runs to a single space
//  2. drop the space in "> <"
//  3. drop whitespace at both ends and every run longer than one rune
//  4. drop whitespace around [ ] { } ( ) | ^ $ * + ? . \
//  5. drop empty element pairs like <p class="x"></p>
//
// followed by a final trim. Running the chain to a fixed point makes Minify
// idempotent, a removed empty pair may leave its parent empty.
func Minify(s string) string {
	for {
		next := minifyOnce(s)
		if next == s {
			return next
		}
		s = next
	}
}

func minifyOnce(s string) string {
	s = spaceRunPattern.ReplaceAllString(s, " ")
	s = interTagPattern.ReplaceAllString(s, "><")
	s = dropLooseSpace(s)
	s = metaCharPattern.ReplaceAllString(s, "$1")
	s = dropEmptyPairs(s)
	return strings.TrimFunc(s, isSpace)
}

// dropLooseSpace keeps a whitespace run only when it is a single rune sitting
// between two non whitespace runes.
func dropLooseSpace(s string) string {
	locs := spaceRunPattern.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if start > 0 && end < len(s) && utf8.RuneCountInString(s[start:end]) == 1 {
			continue
		}
		b.WriteString(s[last:start])
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

// dropEmptyPairs removes <tag ...></tag> when both tag names agree. RE2 has
// no back references, so the names are compared here.
func dropEmptyPairs(s string) string {
	return emptyPairPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := emptyPairPattern.FindStringSubmatch(match)
		if groups != nil && groups[1] == groups[2] {
			return ""
		}
		return match
	})
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0x85:
		return true
	}
	if r >= 0x1C && r <= 0x1F {
		return true
	}
	return unicode.Is(unicode.Z, r)
}
