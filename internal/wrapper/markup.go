package wrapper

import (
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// Attrs are the attributes of a wrapper's opening marker.
type Attrs struct {
	InstanceID string
	Key        string
	OrderTag   string
	Class      string
	// Data holds caller data; each key becomes a kebab-case data-* attribute.
	Data map[string]string
}

// NewInstanceID returns an opaque instance id made of a random token and a
// base-36 millisecond timestamp.
func NewInstanceID() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return "tpl-" + token + "-" + strconv.FormatInt(time.Now().UnixMilli(), 36)
}

// Open renders the opening marker tag.
func Open(a Attrs) string {
	var b strings.Builder
	b.WriteString("<" + TagName)
	writeAttr(&b, AttrWrapper, a.InstanceID)
	writeAttr(&b, AttrKey, a.Key)
	if a.OrderTag != "" {
		writeAttr(&b, AttrOrderTag, a.OrderTag)
	}
	if a.Class != "" {
		writeAttr(&b, "class", a.Class)
	}
	keys := make([]string, 0, len(a.Data))
	for k := range a.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := KebabCase(k)
		if name == "" {
			continue
		}
		writeAttr(&b, "data-"+name, a.Data[k])
	}
	b.WriteString(">")
	return b.String()
}

// Close renders the closing marker tag.
func Close() string {
	return "</" + TagName + ">"
}

// Wrap surrounds inner markup with a complete wrapper.
func Wrap(a Attrs, inner string) string {
	return Open(a) + inner + Close()
}

// Var renders a value marker whose text is the escaped literal value.
func Var(field, value string) string {
	return VarTag(TagName, field, value, "")
}

// VarTag renders a value marker using a custom element and optional class.
func VarTag(tag, field, value, class string) string {
	var b strings.Builder
	b.WriteString("<" + tag)
	writeAttr(&b, AttrVarName, field)
	if class != "" {
		writeAttr(&b, "class", class)
	}
	b.WriteString(">")
	b.WriteString(html.EscapeString(value))
	b.WriteString("</" + tag + ">")
	return b.String()
}

// AttrVar renders the pair of attributes that makes attr's value recoverable
// as field: ` attr="value" data-tpl-attr-var-attr="field"`.
func AttrVar(attr, field, value string) string {
	var b strings.Builder
	writeAttr(&b, attr, value)
	writeAttr(&b, AttrVarPrefix+strings.ToLower(attr), field)
	return b.String()
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
	b.WriteByte('"')
}

// KebabCase converts "dueDate", "Due Date" or "due_date" to "due-date".
// Characters other than ASCII letters, digits and separators are dropped.
func KebabCase(s string) string {
	var b strings.Builder
	prevLowerOrDigit := false
	pendingDash := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '_' || r == '-' || r == '.':
			pendingDash = b.Len() > 0
			prevLowerOrDigit = false
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if unicode.IsUpper(r) && prevLowerOrDigit {
				pendingDash = true
			}
			if pendingDash {
				b.WriteByte('-')
				pendingDash = false
			}
			b.WriteRune(unicode.ToLower(r))
			prevLowerOrDigit = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}
