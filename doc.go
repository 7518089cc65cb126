// Package redirectscheme enforces a canonical URL scheme in front of an
// http.Handler chain.
//
// Features:
// - Redirects http to https (or the reverse) with 301 or 307 responses
// - Rewrites the target URL through an ordered list of literal replacements
// - Exempts configured path prefixes from redirection
// - Recognizes TLS terminated upstream via a forwarded-scheme header
// - Swaps policies atomically at runtime without dropping requests
//
// The usual setup redirects all plain-HTTP traffic to HTTPS:
//
//	cfg := redirectscheme.Simple(false)
//	h := redirectscheme.NewHandler(logger, cfg, mux)
//	http.ListenAndServe(":80", h)
//
// Hosts whose public port differs from the internal one rewrite it with
// replacements:
//
//	cfg := redirectscheme.NewBuilder().
//		Replacements(redirectscheme.Replacement{From: ":8080", To: ":8443"}).
//		Build()
//
// Replacements are literal substring substitutions applied in order over
// the whole URL string, host, path and query alike. They are deliberately
// blunt; a pair like {"O", "0"} rewrites every occurrence, not just the
// port. Order the list so earlier rewrites do not feed later ones by
// accident.
//
// Policies are immutable once built. Evaluate never mutates the request
// and produces no side effects, so a single Config is safe for concurrent
// use across any number of goroutines.
package redirectscheme
