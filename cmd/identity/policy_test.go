package identity

import "testing"

func TestAllowed(t *testing.T) {
	user := Principal{ID: "u1", Roles: []string{RoleUser}}
	admin := Principal{ID: "a1", Roles: []string{RoleAdmin}}
	roleless := Principal{ID: "u2"}

	cases := []struct {
		name    string
		p       Principal
		pol     Policy
		ownerID string
		want    bool
	}{
		{"admin overrides role policy", admin, AnyOf("moderator"), "", true},
		{"admin overrides ownership", admin, OwnerOnly(), "u1", true},

		{"owner allowed", user, OwnerOnly(), "u1", true},
		{"non-owner denied", user, OwnerOnly(), "someone-else", false},
		{"owner policy ignores roles", roleless, OwnerOnly(), "u2", true},
		{"owner policy with empty owner denied", user, OwnerOnly(), "", false},

		{"role intersection allowed", user, AnyOf(RoleUser, RoleAdmin), "", true},
		{"role intersection denied", roleless, AnyOf(RoleUser), "", false},
		{"empty policy denies", user, Policy{}, "", false},
		{"role policy ignores ownership", user, AnyOf("moderator"), "u1", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Allowed(tc.p, tc.pol, tc.ownerID); got != tc.want {
				t.Fatalf("Allowed = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPrincipalHasRole(t *testing.T) {
	p := Principal{ID: "u1", Roles: []string{"user", "admin"}}
	if !p.HasRole("admin") || !p.HasRole("user") {
		t.Fatalf("expected both roles present")
	}
	if p.HasRole("moderator") {
		t.Fatalf("unexpected role")
	}
	if (Principal{}).HasRole("user") {
		t.Fatalf("empty principal must hold no roles")
	}
}
