package bot

import "testing"

// TestQualityFilters verifies the pre-AI content checks
func TestQualityFilters(t *testing.T) {
	cases := []struct {
		label string
		text  string
		want  bool
	}{
		{"plain sentence", "hey how are you", true},
		{"short with punctuation", "hi!!", true},
		{"zero alphanumerics", "?!?!?! :) ---", false},
		{"long symbol spam", "a=+=+=+=+=+=+=+=+=+=+", false},
		{"long but dense", "this is a normal longer sentence", true},
		{"short symbol heavy", "a!!???", true},
		{"unicode letters count", "привет как дела у тебя", true},
	}

	for _, tc := range cases {
		if got := passesQualityFilters(tc.text); got != tc.want {
			t.Errorf("%s: passesQualityFilters(%q) = %v, want %v", tc.label, tc.text, got, tc.want)
		}
	}
}
