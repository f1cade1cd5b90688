package bot

import "strings"

// Parse splits raw message text into a command name and args. The text must
// start exactly with the prefix; a bare prefix is not a command. The name is
// lowercased, args keep their case. No quoting support.
func Parse(text, prefix string) (name string, args []string, ok bool) {
	if text == "" || prefix == "" || !strings.HasPrefix(text, prefix) {
		return "", nil, false
	}

	content := strings.TrimSpace(text[len(prefix):])
	if content == "" {
		return "", nil, false
	}

	parts := strings.Fields(content)
	return strings.ToLower(parts[0]), parts[1:], true
}
