package identity

import "testing"

func TestNormalizeEmail(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Alice@Example.COM", "alice@example.com"},
		{"  bob@example.com  ", "bob@example.com"},
		{"carol@example.com", "carol@example.com"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeEmail(tc.in); got != tc.want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
