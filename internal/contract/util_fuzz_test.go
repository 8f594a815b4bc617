package contract

import (
	"testing"
)

// FuzzParseChannels fuzzes the channel list parser with arbitrary input.
func FuzzParseChannels(f *testing.F) {
	for _, seed := range []string{"1", "1,2", "4,3,2,1", "", ",,", "1,1", "-1", "99999999999999999999"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, s string) {
		channels, err := ParseChannels(s)
		if err != nil {
			return
		}
		seen := map[int]bool{}
		for _, ch := range channels {
			if ch < 1 || ch > MaxChannel {
				t.Fatalf("channel %d out of range for input %q", ch, s)
			}
			if seen[ch] {
				t.Fatalf("duplicate channel %d for input %q", ch, s)
			}
			seen[ch] = true
		}
	})
}
