// Package testutil builds markdown vaults on disk for tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// docData holds the content of one document to be written.
type docData struct {
	path string
	text string
}

// Builder accumulates documents and writes them under a temporary vault.
type Builder struct {
	t    *testing.T
	root string
	docs []docData
}

// NewVault creates a builder rooted at a fresh t.TempDir().
func NewVault(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, root: t.TempDir()}
}

// Root returns the vault directory.
func (b *Builder) Root() string {
	return b.root
}

// WithDoc adds a document made of lines, each terminated by a newline.
// path uses forward slashes and is relative to the vault.
func (b *Builder) WithDoc(path string, lines ...Line) *Builder {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
	}
	return b.WithRaw(path, sb.String())
}

// WithRaw adds a document with verbatim text.
func (b *Builder) WithRaw(path, text string) *Builder {
	b.docs = append(b.docs, docData{path: path, text: text})
	return b
}

// Build writes every document and returns the vault root.
func (b *Builder) Build() string {
	b.t.Helper()
	for _, d := range b.docs {
		WriteFile(b.t, b.root, d.path, d.text)
	}
	return b.root
}

// WriteFile writes text to rel under root, creating parent directories.
func WriteFile(t *testing.T, root, rel, text string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(text), 0o600))
	return p
}
