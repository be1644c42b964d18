package google

import "testing"

func TestYearPrefixedName(t *testing.T) {
	cases := []struct {
		base string
		year int
		want string
	}{
		{"Ledger", 2025, "2025 Ledger"},
		{"2024 Ledger", 2025, "2024 Ledger"}, // already prefixed
		{"  Ledger ", 2025, "2025 Ledger"},
		{"", 2025, ""},
	}
	for _, tc := range cases {
		if got := yearPrefixedName(tc.base, tc.year); got != tc.want {
			t.Fatalf("%q/%d: got %q, want %q", tc.base, tc.year, got, tc.want)
		}
	}
}
