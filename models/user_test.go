package models

import "testing"

func TestNormalizeRole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value string
		want  string
	}{
		{"admin", RoleAdmin, RoleAdmin},
		{"member", RoleMember, RoleMember},
		{"unknown", "superuser", RoleMember},
		{"empty", "", RoleMember},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeRole(tt.value); got != tt.want {
				t.Fatalf("NormalizeRole(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
