package stream

import "testing"

// TestParseCID verifies channel identifier splitting
func TestParseCID(t *testing.T) {
	cases := []struct {
		in   string
		want ChannelRef
	}{
		{"messaging:12345", ChannelRef{Type: "messaging", ID: "12345"}},
		{"team:general", ChannelRef{Type: "team", ID: "general"}},
		{"12345", ChannelRef{Type: "messaging", ID: "12345"}},
	}

	for _, tc := range cases {
		if got := ParseCID(tc.in); got != tc.want {
			t.Errorf("ParseCID(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

// TestEvent_Channel verifies explicit fields win over the cid
func TestEvent_Channel(t *testing.T) {
	ev := &Event{CID: "messaging:fallback", ChannelType: "team", ChannelID: "general"}
	if got := ev.Channel(); got != (ChannelRef{Type: "team", ID: "general"}) {
		t.Errorf("explicit fields should win, got %+v", got)
	}

	ev = &Event{CID: "messaging:fallback"}
	if got := ev.Channel(); got != (ChannelRef{Type: "messaging", ID: "fallback"}) {
		t.Errorf("cid fallback failed, got %+v", got)
	}
}

// TestChannelRef_CID verifies round-tripping
func TestChannelRef_CID(t *testing.T) {
	ref := ChannelRef{Type: "messaging", ID: "abc"}
	if ref.CID() != "messaging:abc" {
		t.Errorf("unexpected cid: %q", ref.CID())
	}
}
