package cli

import "testing"

func TestFormatBytesIEC(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{24000, "23.4 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tc := range cases {
		if got := formatBytesIEC(tc.in); got != tc.want {
			t.Fatalf("formatBytesIEC(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected untouched string, got %q", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := formatTimestamp("2026-08-01T10:00:00Z"); got != "2026-08-01 10:00:00 UTC" {
		t.Fatalf("unexpected formatting: %q", got)
	}
	// Unparseable values pass through untouched.
	if got := formatTimestamp("yesterday-ish"); got != "yesterday-ish" {
		t.Fatalf("expected raw fallback, got %q", got)
	}
}
