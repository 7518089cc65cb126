package redirectscheme

import (
	"net/http"
	"strings"
)

// Request is the engine's read-only view of one inbound request. Build
// one from an *http.Request with NewRequest, or fill the fields directly
// when evaluating outside an HTTP server.
type Request struct {
	// Method is the HTTP method, unused by the engine itself but kept
	// for callers inspecting decisions.
	Method string

	// Secure reports whether the request arrived over TLS on this
	// process's own listener.
	Secure bool

	// ForwardedProto is the scheme claimed by a trusted proxy header,
	// or "" when absent or untrusted.
	ForwardedProto string

	// URL is the absolute form the redirect target is derived from,
	// e.g. "http://example.com/path?q=1".
	URL string

	// Path is the URL path checked against ignored prefixes.
	Path string
}

// NewRequest builds the engine's view of r. forwardedHeader names the
// header carrying the client-facing scheme; "" means no header is
// trusted. The URL field is assembled from the effective scheme, the
// Host header and the raw request URI.
func NewRequest(r *http.Request, forwardedHeader string) Request {
	req := Request{
		Method: r.Method,
		Secure: r.TLS != nil,
		Path:   r.URL.Path,
	}
	if forwardedHeader != "" {
		req.ForwardedProto = r.Header.Get(forwardedHeader)
	}

	req.URL = req.EffectiveScheme().Prefix() + r.Host + r.RequestURI

	return req
}

// EffectiveScheme is the scheme attributed to the request: https when
// the connection itself is TLS or a trusted proxy says it was, http
// otherwise. The forwarded value must be exactly "https" to count.
func (r Request) EffectiveScheme() Scheme {
	if r.Secure || r.ForwardedProto == string(SchemeHTTPS) {
		return SchemeHTTPS
	}

	return SchemeHTTP
}

// Decision is the outcome of evaluating one request against a policy.
type Decision struct {
	// Redirect reports whether the request must be redirected. When
	// false the other fields are zero and the request proceeds as is.
	Redirect bool

	// Target is the absolute URL to redirect to.
	Target string

	// Status is the response status, 301 or 307.
	Status int
}

// Evaluate applies the policy to one request. It is pure: no logging,
// no mutation, the same inputs always produce the same decision.
func (c *Config) Evaluate(req Request) Decision {
	if c.disabled {
		return Decision{}
	}

	for _, prefix := range c.ignorePaths {
		if strings.HasPrefix(req.Path, prefix) {
			return Decision{}
		}
	}

	if req.EffectiveScheme() == c.TargetScheme() {
		return Decision{}
	}

	return Decision{
		Redirect: true,
		Target:   c.targetURL(req.URL),
		Status:   c.status(),
	}
}

// EvaluateHTTP evaluates r using the policy's own forwarded-header
// setting.
func (c *Config) EvaluateHTTP(r *http.Request) Decision {
	return c.Evaluate(NewRequest(r, c.forwardedHeader))
}

// targetURL rebuilds url under the target scheme and runs the
// replacement list over the result. A url carrying neither scheme
// prefix keeps its original form; replacements still apply.
func (c *Config) targetURL(url string) string {
	target := url

	switch {
	case strings.HasPrefix(url, SchemeHTTP.Prefix()):
		target = c.TargetScheme().Prefix() + url[len(SchemeHTTP.Prefix()):]
	case strings.HasPrefix(url, SchemeHTTPS.Prefix()):
		target = c.TargetScheme().Prefix() + url[len(SchemeHTTPS.Prefix()):]
	}

	for _, rep := range c.replacements {
		target = strings.ReplaceAll(target, rep.From, rep.To)
	}

	return target
}

func (c *Config) status() int {
	if c.temporary {
		return http.StatusTemporaryRedirect
	}

	return http.StatusMovedPermanently
}
