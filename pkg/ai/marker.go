package ai

import (
	"regexp"
	"strconv"
	"strings"
)

var ghostMarkerRe = regexp.MustCompile(`\[GHOST:(\d+)\]`)

// ParseGhostMarker extracts a [GHOST:<minutes>] marker from a model reply.
// It returns the reply with the marker stripped, the requested minutes, and
// whether a marker was present. Only the first marker counts.
func ParseGhostMarker(text string) (clean string, minutes int, ok bool) {
	m := ghostMarkerRe.FindStringSubmatch(text)
	if m == nil {
		return text, 0, false
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return text, 0, false
	}
	clean = strings.TrimSpace(ghostMarkerRe.ReplaceAllString(text, ""))
	return clean, minutes, true
}
