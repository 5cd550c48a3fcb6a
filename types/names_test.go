package types

import (
	"regexp"
	"testing"
)

func TestUniqueName(t *testing.T) {
	re := regexp.MustCompile(`^final_[0-9a-f]{32}\.mp4$`)
	seen := map[string]bool{}
	for iter := 0; iter < 100; iter++ {
		n := UniqueName("final_", ".mp4")
		if !re.MatchString(n) {
			t.Fatalf("bad name %q", n)
		}
		if seen[n] {
			t.Fatalf("duplicate %q", n)
		}
		seen[n] = true
	}
}
