package template

import (
	"errors"
	"strings"
)

// Identifier errors
var (
	ErrInvalidID = errors.New("invalid template id format")
)

// IDSeparator separates the namespace from the key.
const IDSeparator = "."

// ParseID splits "namespace.key" at the first separator.
// The key may itself contain separators: "agile.sub.epic" -> ("agile", "sub.epic").
func ParseID(id string) (namespace, key string, err error) {
	ns, rest, found := strings.Cut(id, IDSeparator)
	if !found || ns == "" || rest == "" {
		return "", "", ErrInvalidID
	}
	return ns, rest, nil
}

// LastSegment returns the part of id after its final separator.
func LastSegment(id string) string {
	if i := strings.LastIndex(id, IDSeparator); i >= 0 {
		return id[i+len(IDSeparator):]
	}
	return id
}

// BuildID joins a namespace and key into a template id.
func BuildID(namespace, key string) string {
	return namespace + IDSeparator + key
}
