package config

import (
	"os"
	"sort"
	"strings"
)

// DiscoverCredentials collects the credentials for keyEnv from environ.
// The primary variable comes first, followed by every variable named
// keyEnv + "_<suffix>" in lexical name order. Blank values and duplicates
// are dropped.
func DiscoverCredentials(keyEnv string, environ []string) []string {
	if keyEnv == "" {
		return nil
	}

	var primary string
	secondary := map[string]string{}
	prefix := keyEnv + "_"
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch {
		case name == keyEnv:
			primary = value
		case strings.HasPrefix(name, prefix):
			secondary[name] = value
		}
	}

	names := make([]string, 0, len(secondary))
	for name := range secondary {
		names = append(names, name)
	}
	sort.Strings(names)

	ordered := make([]string, 0, len(names)+1)
	ordered = append(ordered, primary)
	for _, name := range names {
		ordered = append(ordered, secondary[name])
	}

	seen := map[string]bool{}
	var keys []string
	for _, k := range ordered {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// Credentials returns the credential pool for the provider from the process
// environment. Providers with KeyOptional and no configured keys get a single
// anonymous (empty) credential.
func (p *ProviderConfig) Credentials() []string {
	keys := DiscoverCredentials(p.KeyEnv, os.Environ())
	if len(keys) == 0 && p.KeyOptional {
		return []string{""}
	}
	return keys
}
