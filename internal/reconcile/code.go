package reconcile

import (
	"path"
	"regexp"
	"strings"
)

var codePattern = regexp.MustCompile(`^[A-Z]+[0-9]+$`)

// ParseCode extracts the catalog code from a filename or an input line.
//
// The stem is the base name without its last extension. Everything from the
// first underscore on is an image sequence suffix and is ignored. The
// remaining candidate must be uppercase ASCII letters followed by digits and
// nothing else; "A621.jpg" and "A622_0.png" yield A621 and A622, while
// "foto1.jpg" and "A621x.jpg" yield no code.
func ParseCode(name string) (string, bool) {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		return "", false
	}
	if ext := path.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}

	candidate, _, _ := strings.Cut(name, "_")
	if !codePattern.MatchString(candidate) {
		return "", false
	}
	return candidate, true
}
