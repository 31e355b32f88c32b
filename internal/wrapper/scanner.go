// Package wrapper locates, extracts, builds and removes template wrapper
// instances in raw document text.
//
// Scanning is a small state machine (quote tracking plus a depth counter) over
// the marker tags this system writes itself. It never parses arbitrary markup
// and never fails: unbalanced input degrades to a best-effort range.
package wrapper

import (
	"regexp"
	"strings"
)

// Marker attribute names written into every instance.
const (
	TagName       = "span"
	AttrWrapper   = "data-template-wrapper"
	AttrKey       = "data-template-key"
	AttrOrderTag  = "data-order-tag"
	AttrVarName   = "data-tpl-var"
	AttrVarPrefix = "data-tpl-attr-var-"
)

// Range is a half-open byte range [Start, End) of one outer wrapper.
type Range struct {
	Start int
	End   int
}

// Removal is the result of RemoveWrappersByTemplate.
type Removal struct {
	WithoutWrappers string
	RemovedWrappers []string
}

// FindTagEnd returns the index of the first '>' after open that is not inside a
// single- or double-quoted attribute value. It returns len(s) when there is none.
func FindTagEnd(s string, open int) int {
	if open < 0 {
		open = 0
	}
	var quote byte
	for i := open + 1; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i
		}
	}
	return len(s)
}

var attrPatterns = newPatternCache()

// HasAttr reports whether tag contains name followed by optional whitespace and '=',
// ignoring case.
func HasAttr(tag, name string) bool {
	return attrPatterns.get(`(?i)` + regexp.QuoteMeta(name) + `\s*=`).MatchString(tag)
}

// FindAllWrapperRanges returns the ranges of every outermost wrapper in s.
// Nested wrappers are part of their parent's range and are not reported.
func FindAllWrapperRanges(s string) []Range {
	lower := asciiLower(s)
	var ranges []Range
	pos := 0
	for pos < len(s) {
		start := indexOpen(lower, pos)
		if start < 0 {
			break
		}
		tagEnd := FindTagEnd(s, start)
		if !HasAttr(s[start:min(tagEnd+1, len(s))], AttrKey) {
			pos = tagEnd + 1
			continue
		}
		end, ok := balance(s, lower, tagEnd+1)
		if !ok {
			end = len(s)
		}
		ranges = append(ranges, Range{Start: start, End: end})
		pos = end
	}
	return ranges
}

// FindAllWrappers returns the raw text of every outermost wrapper in s.
func FindAllWrappers(s string) []string {
	ranges := FindAllWrapperRanges(s)
	out := make([]string, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, s[r.Start:r.End])
	}
	return out
}

// RemoveWrappersByTemplate replaces every outermost wrapper with a single space
// and keeps all other text verbatim.
func RemoveWrappersByTemplate(s string) Removal {
	ranges := FindAllWrapperRanges(s)
	res := Removal{RemovedWrappers: make([]string, 0, len(ranges))}
	if len(ranges) == 0 {
		res.WithoutWrappers = s
		return res
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, r := range ranges {
		b.WriteString(s[last:r.Start])
		b.WriteByte(' ')
		res.RemovedWrappers = append(res.RemovedWrappers, s[r.Start:r.End])
		last = r.End
	}
	b.WriteString(s[last:])
	res.WithoutWrappers = b.String()
	return res
}

// FindMatchingWrapperEnd balances marker tags starting just after an opening
// tag's '>' at afterOpen. It returns the offset just past the matching closing
// tag, or false when the markers never balance.
func FindMatchingWrapperEnd(s string, afterOpen int) (int, bool) {
	if afterOpen < 0 || afterOpen > len(s) {
		return 0, false
	}
	return balance(s, asciiLower(s), afterOpen)
}

// FindOpeningTagByAttr locates the opening marker that carries attr="value".
// The attribute is matched with or without quotes, then the scan walks back to
// the nearest preceding opening marker. It returns the marker start and the
// index of its closing '>'.
func FindOpeningTagByAttr(s, attr, value string) (start, tagEnd int, ok bool) {
	v := regexp.QuoteMeta(value)
	re := attrPatterns.get(`(?i)` + regexp.QuoteMeta(attr) + `\s*=\s*(?:"` + v + `"|'` + v + `'|` + v + `(?:[\s/>]|$))`)
	loc := re.FindStringIndex(s)
	if loc == nil {
		return 0, 0, false
	}
	lower := asciiLower(s)
	for i := loc[0]; i >= 0; i-- {
		if s[i] != '<' {
			continue
		}
		if !isOpenAt(lower, i) {
			continue
		}
		end := FindTagEnd(s, i)
		if end < loc[0] {
			// nearest marker closed before the attribute; it belongs to another tag
			return 0, 0, false
		}
		return i, end, true
	}
	return 0, 0, false
}

// balance walks forward from pos with depth 1 and returns the offset just past
// the closing marker that brings depth back to zero.
func balance(s, lower string, pos int) (int, bool) {
	depth := 1
	i := pos
	for i < len(s) {
		j := strings.IndexByte(s[i:], '<')
		if j < 0 {
			return len(s), false
		}
		j += i
		switch {
		case isOpenAt(lower, j):
			depth++
			i = FindTagEnd(s, j) + 1
		case isCloseAt(lower, j):
			end := FindTagEnd(s, j) + 1
			if end > len(s) {
				end = len(s)
			}
			depth--
			if depth == 0 {
				return end, true
			}
			i = end
		case isTagStart(s, j):
			i = FindTagEnd(s, j) + 1
		default:
			// a bare '<' in text
			i = j + 1
		}
	}
	return len(s), false
}

// indexOpen finds the next opening marker at or after from.
func indexOpen(lower string, from int) int {
	for from < len(lower) {
		j := strings.Index(lower[from:], "<"+TagName)
		if j < 0 {
			return -1
		}
		j += from
		if isOpenAt(lower, j) {
			return j
		}
		from = j + 1
	}
	return -1
}

func isOpenAt(lower string, i int) bool {
	return hasNameAt(lower, i+1)
}

func isCloseAt(lower string, i int) bool {
	return i+1 < len(lower) && lower[i+1] == '/' && hasNameAt(lower, i+2)
}

// hasNameAt reports whether the marker tag name starts at i and ends there.
func hasNameAt(lower string, i int) bool {
	if !strings.HasPrefix(lower[min(i, len(lower)):], TagName) {
		return false
	}
	next := i + len(TagName)
	if next >= len(lower) {
		return true
	}
	switch lower[next] {
	case ' ', '\t', '\n', '\r', '\f', '>', '/':
		return true
	}
	return false
}

func isTagStart(s string, i int) bool {
	if i+1 >= len(s) {
		return false
	}
	c := s[i+1]
	return c == '/' || c == '!' || c == '?' || (c|0x20 >= 'a' && c|0x20 <= 'z')
}

// asciiLower folds A-Z only, so byte offsets match the input.
func asciiLower(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			b := []byte(s)
			for k := i; k < len(b); k++ {
				if b[k] >= 'A' && b[k] <= 'Z' {
					b[k] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}
