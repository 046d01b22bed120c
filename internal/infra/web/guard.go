package web

import "strings"

// AlphaGate limits the API to a closed wallet allowlist while the product is
// in alpha. Disabled gate admits everyone; a "*" entry does the same with the
// gate still on, which keeps the config shape stable across environments.
type AlphaGate struct {
	enabled  bool
	wildcard bool
	allow    map[string]struct{}
}

func NewAlphaGate(enabled bool, whitelist []string) *AlphaGate {
	g := &AlphaGate{enabled: enabled, allow: make(map[string]struct{}, len(whitelist))}
	for _, w := range whitelist {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if w == "*" {
			g.wildcard = true
			continue
		}
		g.allow[w] = struct{}{}
	}
	return g
}

func (g *AlphaGate) Allowed(wallet string) bool {
	if g == nil || !g.enabled || g.wildcard {
		return true
	}
	_, ok := g.allow[strings.ToLower(wallet)]
	return ok
}
