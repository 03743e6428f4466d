package inventory

import (
	"errors"
	"reflect"
	"testing"

	"github.com/newtron-network/netkit/pkg/util"
)

func TestSelectCredentials(t *testing.T) {
	env := Env{
		"SSH_USERNAME":     "ios-user",
		"SSH_PASSWORD":     "ios-pw",
		"SSH_NEX_USERNAME": "admin",
		"SSH_NEX_PASSWORD": "pw",
		"SSH_XR_USERNAME":  "xr-user",
		"SSH_XR_PASSWORD":  "xr-pw",
	}

	tests := []struct {
		name     string
		host     ResolvedHost
		wantUser string
		wantPass string
	}{
		{"nxos env", ResolvedHost{Name: "n1", DeviceType: "cisco_nxos"}, "admin", "pw"},
		{"xr env", ResolvedHost{Name: "x1", DeviceType: "cisco_xr"}, "xr-user", "xr-pw"},
		{"ios env", ResolvedHost{Name: "i1", DeviceType: "cisco_ios"}, "ios-user", "ios-pw"},
		{"host values win", ResolvedHost{Name: "i2", DeviceType: "cisco_nxos", Username: "local", Password: "localpw"}, "local", "localpw"},
		{"fields independent", ResolvedHost{Name: "i3", DeviceType: "cisco_nxos", Username: "local"}, "local", "pw"},
		{"whitespace trimmed", ResolvedHost{Name: "i4", Username: "  spaced  "}, "spaced", "ios-pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.host
			got, err := SelectCredentials(&h, env)
			if err != nil {
				t.Fatalf("SelectCredentials() error = %v", err)
			}
			if got.Username != tt.wantUser || got.Password != tt.wantPass {
				t.Errorf("SelectCredentials() = (%q, %q), want (%q, %q)", got.Username, got.Password, tt.wantUser, tt.wantPass)
			}
			if !reflect.DeepEqual(h, tt.host) {
				t.Error("SelectCredentials() must not modify the host")
			}
		})
	}
}

func TestSelectCredentialsNoCrossFamilyFallback(t *testing.T) {
	h := &ResolvedHost{Name: "nx9", DeviceType: "cisco_nxos"}
	_, err := SelectCredentials(h, Env{"SSH_USERNAME": "ios-user", "SSH_PASSWORD": "ios-pw"})

	var mc *util.MissingCredentialsError
	if !errors.As(err, &mc) {
		t.Fatalf("SelectCredentials() error = %v, want *MissingCredentialsError", err)
	}
	if mc.Host != "nx9" {
		t.Errorf("Host = %q, want nx9", mc.Host)
	}
	if len(mc.Missing) != 2 || mc.Missing[0] != "SSH_NEX_USERNAME" {
		t.Errorf("Missing = %v", mc.Missing)
	}
}

func TestSelectCredentialsPasswordOnlyMissing(t *testing.T) {
	h := &ResolvedHost{Name: "r1", Username: "ops"}
	_, err := SelectCredentials(h, Env{})
	if !errors.Is(err, util.ErrMissingCredentials) {
		t.Fatalf("SelectCredentials() error = %v, want ErrMissingCredentials", err)
	}
}

func TestSelectSecret(t *testing.T) {
	base := Env{"SSH_USERNAME": "u", "SSH_PASSWORD": "p"}

	tests := []struct {
		name   string
		secret string
		extra  map[string]string
		want   string
	}{
		{"host secret", "hostsecret", map[string]string{"ENABLE_SECRET": "env"}, "hostsecret"},
		{"enable secret env", "", map[string]string{"ENABLE_SECRET": "env", "SSH_SECRET": "other"}, "env"},
		{"ssh secret env", "", map[string]string{"SSH_SECRET": "other"}, "other"},
		{"none", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Env{}
			for k, v := range base {
				env[k] = v
			}
			for k, v := range tt.extra {
				env[k] = v
			}
			got, err := SelectCredentials(&ResolvedHost{Name: "r1", Secret: tt.secret}, env)
			if err != nil {
				t.Fatalf("SelectCredentials() error = %v", err)
			}
			if got.Secret != tt.want {
				t.Errorf("Secret = %q, want %q", got.Secret, tt.want)
			}
		})
	}
}

func TestEnrich(t *testing.T) {
	h := &ResolvedHost{Name: "r1", Username: "explicit"}
	out := Enrich(h, Credentials{Username: "env-user", Password: "env-pw", Secret: "sec"})

	if out.Username != "explicit" {
		t.Errorf("Username = %q, explicit value must not be replaced", out.Username)
	}
	if out.Password != "env-pw" || out.Secret != "sec" {
		t.Errorf("Password/Secret = %q/%q", out.Password, out.Secret)
	}
	if h.Password != "" {
		t.Error("Enrich() must return a copy")
	}
}
