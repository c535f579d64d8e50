package scanner

import (
	"path"
	"strings"
)

var audioExtensions = map[string]struct{}{
	"mp3":  {},
	"flac": {},
	"ogg":  {},
	"oga":  {},
	"opus": {},
	"m4a":  {},
	"aac":  {},
	"wav":  {},
	"wma":  {},
	"ape":  {},
	"wv":   {},
}

var imageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
}

// extension returns the lower-cased extension of `name` without the dot.
func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// IsAudio reports whether `name` has one of the recognized audio file
// extensions.
func IsAudio(name string) bool {
	_, ok := audioExtensions[extension(name)]
	return ok
}

// IsImage reports whether `name` could be an album cover.
func IsImage(name string) bool {
	_, ok := imageExtensions[extension(name)]
	return ok
}
