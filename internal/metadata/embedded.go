package metadata

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// taggedExts are the containers that can carry an embedded title.
var taggedExts = map[string]struct{}{
	".mp4": {}, ".m4v": {}, ".mov": {}, ".m4a": {},
	".mp3": {}, ".flac": {}, ".ogg": {},
}

// HasEmbeddedTags reports whether files named like name may carry tags.
func HasEmbeddedTags(name string) bool {
	_, ok := taggedExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// EmbeddedTitle returns the title stored in the file's own tags, or ""
// when it has none or they cannot be read.
func EmbeddedTitle(r io.ReadSeeker) string {
	m, err := tag.ReadFrom(r)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(m.Title())
}
