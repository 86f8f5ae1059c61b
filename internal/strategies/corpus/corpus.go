// Package corpus embeds the edition text files that ship with the server.
package corpus

import (
	"embed"
	"io/fs"
)

//go:embed *.txt
var files embed.FS

// FS returns the embedded corpus. Edition sources are top-level file names.
func FS() fs.FS {
	return files
}
