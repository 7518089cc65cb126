package redirectscheme

import (
	"net/http/httptest"
	"testing"
)

func Test_Evaluate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		request Request
		want    Decision
	}{
		{
			"plain http is redirected to https",
			NewBuilder().Build(),
			Request{Method: "GET", URL: "http://example.com/a", Path: "/a"},
			Decision{Redirect: true, Target: "https://example.com/a", Status: 301},
		},
		{
			"https already matches the target scheme",
			NewBuilder().Build(),
			Request{Method: "GET", Secure: true, URL: "https://example.com/a", Path: "/a"},
			Decision{},
		},
		{
			"query strings survive the scheme swap",
			NewBuilder().Build(),
			Request{Method: "GET", URL: "http://example.com/search?q=1&r=2", Path: "/search"},
			Decision{Redirect: true, Target: "https://example.com/search?q=1&r=2", Status: 301},
		},
		{
			"replacements rewrite the port",
			NewBuilder().
				Replacements(Replacement{From: ":8080", To: ":8443"}).
				Build(),
			Request{Method: "GET", URL: "http://example.com:8080/a", Path: "/a"},
			Decision{Redirect: true, Target: "https://example.com:8443/a", Status: 301},
		},
		{
			"https to http with temporary status",
			NewBuilder().ToHTTP().Temporary().Build(),
			Request{Method: "POST", Secure: true, URL: "https://example.com/x?y=1", Path: "/x"},
			Decision{Redirect: true, Target: "http://example.com/x?y=1", Status: 307},
		},
		{
			"http already matches the http target",
			NewBuilder().ToHTTP().Build(),
			Request{Method: "GET", URL: "http://example.com/a", Path: "/a"},
			Decision{},
		},
		{
			"disabled policy passes everything",
			NewBuilder().Enable(false).Build(),
			Request{Method: "GET", URL: "http://example.com/a", Path: "/a"},
			Decision{},
		},
		{
			"replacements run in order and may cascade",
			NewBuilder().
				Replacements(
					Replacement{From: "aaa", To: "bbb"},
					Replacement{From: "bbb", To: "ccc"},
				).
				Build(),
			Request{Method: "GET", URL: "http://host/aaa", Path: "/aaa"},
			Decision{Redirect: true, Target: "https://host/ccc", Status: 301},
		},
		{
			"replacements apply to the whole url, host included",
			NewBuilder().
				Replacements(Replacement{From: "example", To: "trial"}).
				Build(),
			Request{Method: "GET", URL: "http://example.com/example", Path: "/example"},
			Decision{Redirect: true, Target: "https://trial.com/trial", Status: 301},
		},
		{
			"url without a scheme prefix keeps its form",
			NewBuilder().Build(),
			Request{Method: "GET", URL: "example.com/a", Path: "/a"},
			Decision{Redirect: true, Target: "example.com/a", Status: 301},
		},
		{
			"ignored path prefix passes through",
			NewBuilder().IgnorePath("/healthz").Build(),
			Request{Method: "GET", URL: "http://example.com/healthz", Path: "/healthz"},
			Decision{},
		},
		{
			"ignored prefix covers nested paths",
			NewBuilder().IgnorePath("/.well-known/").Build(),
			Request{Method: "GET", URL: "http://example.com/.well-known/acme-challenge/tok", Path: "/.well-known/acme-challenge/tok"},
			Decision{},
		},
		{
			"paths outside the ignored prefix still redirect",
			NewBuilder().IgnorePath("/healthz").Build(),
			Request{Method: "GET", URL: "http://example.com/health", Path: "/health"},
			Decision{Redirect: true, Target: "https://example.com/health", Status: 301},
		},
		{
			"forwarded proto counts as https",
			NewBuilder().Build(),
			Request{Method: "GET", ForwardedProto: "https", URL: "https://example.com/a", Path: "/a"},
			Decision{},
		},
		{
			"forwarded proto is matched exactly",
			NewBuilder().Build(),
			Request{Method: "GET", ForwardedProto: "HTTPS", URL: "http://example.com/a", Path: "/a"},
			Decision{Redirect: true, Target: "https://example.com/a", Status: 301},
		},
	}

	for _, test := range tests {
		got := test.config.Evaluate(test.request)

		if got != test.want {
			t.Errorf("%s:\n\texpected = %+v\n\tactual   = %+v\n", test.name, test.want, got)
		}
	}
}

func Test_EvaluateIsRepeatable(t *testing.T) {
	cfg := NewBuilder().
		Replacements(Replacement{From: ":8080", To: ":8443"}).
		Build()

	req := Request{Method: "GET", URL: "http://example.com:8080/a", Path: "/a"}

	first := cfg.Evaluate(req)

	for i := 0; i < 10; i++ {
		if got := cfg.Evaluate(req); got != first {
			t.Fatalf("evaluation %d differed from the first: %+v != %+v", i, got, first)
		}
	}
}

func Test_NewRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/a/b?c=1", nil)

	req := NewRequest(r, DefaultForwardedHeader)

	if req.Method != "GET" {
		t.Errorf("expected method GET, got %s", req.Method)
	}
	if req.Secure {
		t.Error("plain request should not be secure")
	}
	if req.URL != "http://example.com/a/b?c=1" {
		t.Errorf("expected url http://example.com/a/b?c=1, got %s", req.URL)
	}
	if req.Path != "/a/b" {
		t.Errorf("expected path /a/b, got %s", req.Path)
	}
}

func Test_NewRequestForwarded(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		value      string
		trusted    string
		wantScheme Scheme
	}{
		{"forwarded https via default header", "X-Forwarded-Proto", "https", DefaultForwardedHeader, SchemeHTTPS},
		{"forwarded http via default header", "X-Forwarded-Proto", "http", DefaultForwardedHeader, SchemeHTTP},
		{"uppercase value is not recognized", "X-Forwarded-Proto", "HTTPS", DefaultForwardedHeader, SchemeHTTP},
		{"header ignored when trust disabled", "X-Forwarded-Proto", "https", "", SchemeHTTP},
		{"custom header name is honored", "X-Scheme", "https", "X-Scheme", SchemeHTTPS},
		{"default header ignored when another is trusted", "X-Forwarded-Proto", "https", "X-Scheme", SchemeHTTP},
	}

	for _, test := range tests {
		r := httptest.NewRequest("GET", "/a", nil)
		r.Header.Set(test.header, test.value)

		req := NewRequest(r, test.trusted)

		if got := req.EffectiveScheme(); got != test.wantScheme {
			t.Errorf("%s: expected scheme %s, got %s", test.name, test.wantScheme, got)
		}
	}
}

func Test_NewRequestTLS(t *testing.T) {
	r := httptest.NewRequest("GET", "https://example.com/a", nil)

	req := NewRequest(r, DefaultForwardedHeader)

	if !req.Secure {
		t.Error("request with TLS state should be secure")
	}
	if got := req.EffectiveScheme(); got != SchemeHTTPS {
		t.Errorf("expected scheme https, got %s", got)
	}
}
