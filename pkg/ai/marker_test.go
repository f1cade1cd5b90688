package ai

import (
	"strings"
	"testing"
)

// TestParseGhostMarker verifies extraction and stripping of the control marker
func TestParseGhostMarker(t *testing.T) {
	cases := []struct {
		label       string
		in          string
		wantClean   string
		wantMinutes int
		wantOK      bool
	}{
		{"no marker", "just a normal reply", "just a normal reply", 0, false},
		{"trailing marker", "okay i'm ignoring you [GHOST:10]", "okay i'm ignoring you", 10, true},
		{"marker mid-text", "yeah no [GHOST:20] that's messed up", "yeah no  that's messed up", 20, true},
		{"thirty minutes", "wtf is wrong with you [GHOST:30]", "wtf is wrong with you", 30, true},
		{"lowercase not matched", "[ghost:10] hmm", "[ghost:10] hmm", 0, false},
		{"marker only", "[GHOST:10]", "", 10, true},
	}

	for _, tc := range cases {
		clean, minutes, ok := ParseGhostMarker(tc.in)
		if ok != tc.wantOK || minutes != tc.wantMinutes || clean != tc.wantClean {
			t.Errorf("%s: ParseGhostMarker(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tc.label, tc.in, clean, minutes, ok, tc.wantClean, tc.wantMinutes, tc.wantOK)
		}
	}
}

// TestVisionPrompt verifies the user-message slot substitution
func TestVisionPrompt(t *testing.T) {
	withMessage := visionPrompt("check this out")
	if strings.Count(withMessage, "check this out") != 1 {
		t.Error("user message should be embedded in the prompt exactly once")
	}
	if strings.Contains(withMessage, "{{user}}") {
		t.Error("the slot should be replaced")
	}

	without := visionPrompt("   ")
	if !strings.Contains(without, "(No user message provided)") {
		t.Error("blank user message should use the placeholder")
	}
}
