package redirectscheme

// Builder assembles a Config step by step. Every setter returns the
// builder, so calls chain:
//
//	cfg := redirectscheme.NewBuilder().
//		Temporary().
//		IgnorePath("/healthz").
//		Build()
//
// Builders are not safe for concurrent use; the Configs they produce
// are.
type Builder struct {
	disable         bool
	toHTTP          bool
	temporary       bool
	replacements    []Replacement
	ignorePaths     []string
	forwardedHeader string
}

// NewBuilder returns a builder for the default policy: enabled, http to
// https, 301 responses, no replacements, no ignored paths, trusting
// DefaultForwardedHeader.
func NewBuilder() *Builder {
	return &Builder{
		forwardedHeader: DefaultForwardedHeader,
	}
}

// Enable switches redirection on (true) or off (false). A disabled
// policy still evaluates cleanly and passes everything through.
func (b *Builder) Enable(v bool) *Builder {
	b.disable = !v
	return b
}

// HTTPToHTTPS sets the direction: true steers requests to https, false
// to http. It is the exact complement of HTTPSToHTTP; whichever was
// called last wins.
func (b *Builder) HTTPToHTTPS(v bool) *Builder {
	b.toHTTP = !v
	return b
}

// HTTPSToHTTP sets the direction: true steers requests to http, false
// to https.
func (b *Builder) HTTPSToHTTP(v bool) *Builder {
	b.toHTTP = v
	return b
}

// ToHTTPS is shorthand for HTTPToHTTPS(true).
func (b *Builder) ToHTTPS() *Builder {
	return b.HTTPToHTTPS(true)
}

// ToHTTP is shorthand for HTTPSToHTTP(true).
func (b *Builder) ToHTTP() *Builder {
	return b.HTTPSToHTTP(true)
}

// Permanent selects 301 Moved Permanently (true) or 307 Temporary
// Redirect (false) for redirect responses.
func (b *Builder) Permanent(v bool) *Builder {
	b.temporary = !v
	return b
}

// Temporary is shorthand for Permanent(false).
func (b *Builder) Temporary() *Builder {
	return b.Permanent(false)
}

// Replacements sets the ordered substitution list applied to redirect
// targets, replacing any list set before.
func (b *Builder) Replacements(pairs ...Replacement) *Builder {
	b.replacements = append([]Replacement(nil), pairs...)
	return b
}

// IgnorePath adds a path prefix exempt from redirection. Prefixes
// accumulate across calls.
func (b *Builder) IgnorePath(prefix string) *Builder {
	b.ignorePaths = append(b.ignorePaths, prefix)
	return b
}

// ForwardedHeader names the request header trusted to carry the scheme
// seen by an upstream proxy. The empty string disables the forwarded
// signal entirely; only the connection's own TLS state then counts.
func (b *Builder) ForwardedHeader(name string) *Builder {
	b.forwardedHeader = name
	return b
}

// Build produces the immutable policy. The builder remains usable and
// later mutations never leak into configs built earlier.
func (b *Builder) Build() *Config {
	return &Config{
		disabled:        b.disable,
		toHTTP:          b.toHTTP,
		temporary:       b.temporary,
		replacements:    append([]Replacement(nil), b.replacements...),
		ignorePaths:     append([]string(nil), b.ignorePaths...),
		forwardedHeader: b.forwardedHeader,
	}
}
