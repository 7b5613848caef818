// Package platform is the single allow-list of chat platforms whose shared
// conversation links can be recovered.
package platform

import "strings"

type Platform struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

var supported = []Platform{
	{Domain: "chatgpt.com", Name: "ChatGPT"},
	{Domain: "chat.openai.com", Name: "ChatGPT"},
	{Domain: "claude.ai", Name: "Claude"},
	{Domain: "perplexity.ai", Name: "Perplexity"},
	{Domain: "poe.com", Name: "Poe"},
	{Domain: "bard.google.com", Name: "Bard"},
	{Domain: "gemini.google.com", Name: "Gemini"},
}

// All returns a copy of the allow-list in canonical order.
func All() []Platform {
	out := make([]Platform, len(supported))
	copy(out, supported)
	return out
}

// Domains returns the allow-listed domains in canonical order.
func Domains() []string {
	out := make([]string, len(supported))
	for i, p := range supported {
		out[i] = p.Domain
	}
	return out
}

// Match reports whether host is an allow-listed domain or a subdomain of one.
func Match(host string) (Platform, bool) {
	h := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if h == "" {
		return Platform{}, false
	}
	for _, p := range supported {
		if h == p.Domain || strings.HasSuffix(h, "."+p.Domain) {
			return p, true
		}
	}
	return Platform{}, false
}
