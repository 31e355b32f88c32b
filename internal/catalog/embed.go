package catalog

import (
	"embed"
	"io/fs"
)

// builtin embeds the catalogs shipped with tasktpl:
//   - catalogs/agile.yaml (initiative, epic, story)
//   - catalogs/meta.yaml (priority, link, blockref, marker)
//
//go:embed catalogs/*.yaml
var builtin embed.FS

// BuiltinDir is the directory of the embedded catalog files.
const BuiltinDir = "catalogs"

// BuiltinFS returns the embedded catalog filesystem.
func BuiltinFS() fs.FS {
	return builtin
}
