package wrapper

import (
	"strings"

	"golang.org/x/net/html"
)

// Instance is one outermost wrapper found in a text.
type Instance struct {
	Range
	Raw   string
	Attrs Attrs
}

// Scan returns every outermost wrapper in s with its marker attributes.
func Scan(s string) []Instance {
	ranges := FindAllWrapperRanges(s)
	out := make([]Instance, 0, len(ranges))
	for _, r := range ranges {
		raw := s[r.Start:r.End]
		out = append(out, Instance{Range: r, Raw: raw, Attrs: InstanceAttrs(raw)})
	}
	return out
}

// InstanceAttrs reads the attributes of the first opening marker in markup.
// Data attributes other than the marker's own are returned in Data keyed by
// their kebab-case name without the "data-" prefix.
func InstanceAttrs(markup string) Attrs {
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return Attrs{}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != TagName {
				continue
			}
			var a Attrs
			for _, attr := range tok.Attr {
				switch {
				case attr.Key == AttrWrapper:
					a.InstanceID = attr.Val
				case attr.Key == AttrKey:
					a.Key = attr.Val
				case attr.Key == AttrOrderTag:
					a.OrderTag = attr.Val
				case attr.Key == "class":
					a.Class = attr.Val
				case strings.HasPrefix(attr.Key, "data-") && !strings.HasPrefix(attr.Key, "data-tpl-"):
					if a.Data == nil {
						a.Data = make(map[string]string)
					}
					a.Data[strings.TrimPrefix(attr.Key, "data-")] = attr.Val
				}
			}
			return a
		}
	}
}

// voidElements never have a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

type capture struct {
	field string
	depth int
	text  strings.Builder
}

// ExtractParams recovers the literal values of every value marker inside one
// wrapper instance. Text markers (data-tpl-var) yield their unescaped text;
// attribute markers (data-tpl-attr-var-<attr>) yield the value of <attr> on the
// same element. Markers inside nested wrappers belong to those wrappers and are
// skipped. The first marker for a field wins.
func ExtractParams(markup string) map[string]string {
	params := make(map[string]string)
	set := func(field, value string) {
		if field == "" {
			return
		}
		if _, exists := params[field]; !exists {
			params[field] = value
		}
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	depth := 0
	skipUntil := -1 // depth at which a nested wrapper started
	wrappers := 0
	var stack []*capture

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			for _, c := range stack {
				set(c.field, c.text.String())
			}
			return params

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			opens := tt == html.StartTagToken && !voidElements[tok.Data]
			if skipUntil >= 0 {
				if opens {
					depth++
				}
				continue
			}
			if tok.Data == TagName && hasTokenAttr(tok, AttrKey) {
				wrappers++
				if wrappers > 1 {
					if opens {
						skipUntil = depth
						depth++
					}
					continue
				}
			}
			for _, attr := range tok.Attr {
				if strings.HasPrefix(attr.Key, AttrVarPrefix) {
					owner := strings.TrimPrefix(attr.Key, AttrVarPrefix)
					set(attr.Val, tokenAttr(tok, owner))
				}
			}
			if field := tokenAttr(tok, AttrVarName); field != "" && opens {
				stack = append(stack, &capture{field: field, depth: depth})
			}
			if opens {
				depth++
			}

		case html.EndTagToken:
			if depth > 0 {
				depth--
			}
			if skipUntil >= 0 {
				if depth == skipUntil {
					skipUntil = -1
				}
				continue
			}
			if n := len(stack); n > 0 && stack[n-1].depth == depth {
				set(stack[n-1].field, stack[n-1].text.String())
				stack = stack[:n-1]
			}

		case html.TextToken:
			if skipUntil >= 0 {
				continue
			}
			text := string(z.Text())
			for _, c := range stack {
				c.text.WriteString(text)
			}
		}
	}
}

func hasTokenAttr(tok html.Token, key string) bool {
	for _, a := range tok.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func tokenAttr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
