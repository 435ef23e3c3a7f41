package dtls

import "testing"

func TestDeriveRole(t *testing.T) {
	cases := []struct {
		name           string
		remoteSetup    string
		settingOverride Role
		iceControlling bool
		want           Role
	}{
		{"remote active means we are server", "active", 0, false, RoleServer},
		{"remote passive means we are client", "passive", 0, true, RoleClient},
		{"setting engine override wins absent remote setup", "", RoleServer, false, RoleServer},
		{"ice controlling defaults to server", "", 0, true, RoleServer},
		{"default is client", "", 0, false, RoleClient},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := DeriveRole(c.remoteSetup, c.settingOverride, c.iceControlling)
			if got != c.want {
				t.Fatalf("DeriveRole() = %v, want %v", got, c.want)
			}
		})
	}
}
