package rule

import (
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// directives are the strftime conversion characters strftime.Format renders.
const directives = "AaBbhmdeIlHkMSLfNyYCUWVgGsQwujpPZz+cvFDxrTXR%tn"

// Expand renders the strftime directives of path against at.
// An empty path or a zero time is returned unchanged.
func Expand(path string, at time.Time) (string, error) {
	if path == "" || at.IsZero() {
		return path, nil
	}
	if err := checkTemplate(path); err != nil {
		return "", err
	}
	return strftime.Format(path, at), nil
}

// checkTemplate rejects directives strftime.Format would copy through verbatim.
func checkTemplate(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		start := i
		i++
		if i < len(path) && (path[i] == '-' || path[i] == ':') {
			i++
		}
		if i >= len(path) || !strings.ContainsRune(directives, rune(path[i])) {
			end := i + 1
			if end > len(path) {
				end = len(path)
			}
			return &TemplateError{Template: path, Directive: path[start:end]}
		}
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp reads a point in time for rendering templates.
// Layouts without a zone are read in the local zone.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err != nil {
			continue
		}
		if t.IsZero() {
			break
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
