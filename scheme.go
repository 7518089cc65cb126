package redirectscheme

// Scheme identifies a URL scheme a policy can enforce.
type Scheme string

// Schemes understood by the redirect engine.
const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

// Prefix returns the scheme's literal URL prefix, e.g. "https://".
func (s Scheme) Prefix() string {
	return string(s) + "://"
}

// DefaultForwardedHeader is the header consulted for the scheme seen by a
// TLS-terminating proxy in front of this process, unless the policy names
// a different one.
const DefaultForwardedHeader = "X-Forwarded-Proto"

// Replacement is one literal substring substitution applied to a redirect
// target. Every non-overlapping occurrence of From anywhere in the URL
// string becomes To.
type Replacement struct {
	From string
	To   string
}

// Config is an immutable redirect policy. Build one with NewBuilder, or
// use the Simple and WithReplacements shortcuts. The zero value redirects
// http to https with a 301 and trusts no forwarded header; prefer the
// constructors, which fill in DefaultForwardedHeader.
type Config struct {
	disabled        bool
	toHTTP          bool
	temporary       bool
	replacements    []Replacement
	ignorePaths     []string
	forwardedHeader string
}

// Simple returns a policy with all defaults except the direction: toHTTP
// false redirects http to https, toHTTP true the reverse.
func Simple(toHTTP bool) *Config {
	return &Config{
		toHTTP:          toHTTP,
		forwardedHeader: DefaultForwardedHeader,
	}
}

// WithReplacements returns the same policy as Simple plus an ordered
// replacement list applied to every redirect target.
func WithReplacements(toHTTP bool, pairs []Replacement) *Config {
	cfg := Simple(toHTTP)
	cfg.replacements = append([]Replacement(nil), pairs...)

	return cfg
}

// Enabled reports whether the policy redirects at all. A disabled policy
// passes every request through untouched.
func (c *Config) Enabled() bool {
	return !c.disabled
}

// TargetScheme returns the scheme the policy steers requests toward.
func (c *Config) TargetScheme() Scheme {
	if c.toHTTP {
		return SchemeHTTP
	}

	return SchemeHTTPS
}

// Permanent reports whether redirects use 301 Moved Permanently. When
// false they use 307 Temporary Redirect, which preserves the request
// method and body across the hop.
func (c *Config) Permanent() bool {
	return !c.temporary
}

// Replacements returns a copy of the ordered replacement list.
func (c *Config) Replacements() []Replacement {
	return append([]Replacement(nil), c.replacements...)
}

// IgnorePaths returns a copy of the path prefixes exempt from
// redirection.
func (c *Config) IgnorePaths() []string {
	return append([]string(nil), c.ignorePaths...)
}

// ForwardedHeader returns the name of the header trusted to carry the
// client-facing scheme, or "" when no header is trusted.
func (c *Config) ForwardedHeader() string {
	return c.forwardedHeader
}
