package inventory

import (
	"strings"

	"github.com/newtron-network/netkit/pkg/platform"
	"github.com/newtron-network/netkit/pkg/util"
)

// Credentials is the login selected for one host.
type Credentials struct {
	Username string
	Password string
	Secret   string
}

// envPair names the username/password variables consulted for a family.
type envPair struct {
	User, Pass string
}

var familyEnv = map[platform.Family]envPair{
	platform.NXOS:  {"SSH_NEX_USERNAME", "SSH_NEX_PASSWORD"},
	platform.IOSXR: {"SSH_XR_USERNAME", "SSH_XR_PASSWORD"},
	platform.IOS:   {"SSH_USERNAME", "SSH_PASSWORD"},
}

// Enable secret fallbacks, consulted in order when the host has no secret.
var secretEnv = []string{"ENABLE_SECRET", "SSH_SECRET"}

// SelectCredentials picks the login for h. Inventory values win; each empty
// field then falls back to the variable of h's vendor family. It reads h and
// env only and never modifies h.
func SelectCredentials(h *ResolvedHost, env Env) (Credentials, error) {
	pair := familyEnv[platform.Classify(h.DeviceType)]

	c := Credentials{
		Username: strings.TrimSpace(h.Username),
		Password: strings.TrimSpace(h.Password),
		Secret:   h.Secret,
	}
	if c.Username == "" {
		c.Username = strings.TrimSpace(env.Get(pair.User))
	}
	if c.Password == "" {
		c.Password = strings.TrimSpace(env.Get(pair.Pass))
	}
	for _, name := range secretEnv {
		if c.Secret != "" {
			break
		}
		c.Secret = env.Get(name)
	}

	var missing []string
	if c.Username == "" {
		missing = append(missing, pair.User)
	}
	if c.Password == "" {
		missing = append(missing, pair.Pass)
	}
	if len(missing) > 0 {
		return Credentials{}, util.NewMissingCredentialsError(h.Name, missing...)
	}
	return c, nil
}

// Enrich returns a copy of h with empty credential fields filled from c.
// Values already present on h are never replaced.
func Enrich(h *ResolvedHost, c Credentials) *ResolvedHost {
	out := *h
	if out.Username == "" {
		out.Username = c.Username
	}
	if out.Password == "" {
		out.Password = c.Password
	}
	if out.Secret == "" {
		out.Secret = c.Secret
	}
	return &out
}
