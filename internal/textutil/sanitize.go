package textutil

import "strings"

// fileNameReplacer turns separators and spaces into dashes and drops the
// remaining characters that commonly upset filesystems.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	" ", "-",
	":", "-",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName maps an identifier to a filesystem-safe base name.
// Returns an empty string when nothing safe remains; callers choose
// their own fallback.
func SanitizeFileName(name string) string {
	return strings.Trim(fileNameReplacer.Replace(name), "-_. ")
}
