package contract

import (
	"testing"
	"unicode/utf8"
)

// FuzzTruncateName fuzzes TruncateName with random names and widths.
func FuzzTruncateName(f *testing.F) {
	f.Add("alice", 10)
	f.Add("a-very-long-login-name", 8)
	f.Add("", 0)
	f.Add("ñandú", 4)

	f.Fuzz(func(t *testing.T, name string, width int) {
		got := TruncateName(name, width)
		if width > 3 && utf8.RuneCountInString(got) > width && utf8.ValidString(name) {
			t.Fatalf("TruncateName(%q, %d) = %q exceeds width", name, width, got)
		}
	})
}

// FuzzParseTimeValue checks that parsing never panics.
func FuzzParseTimeValue(f *testing.F) {
	f.Add("2025-11-03T10:00:00Z")
	f.Add("2023-01-01")
	f.Add("3 months ago")
	f.Add("99999999999999999999 years ago")

	f.Fuzz(func(_ *testing.T, s string) {
		_, _ = ParseTimeValue(s, fixedNow)
	})
}
