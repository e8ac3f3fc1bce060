package awssig

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

// vanillaRequest builds the AWS sigv4 test-suite "get-vanilla" request:
// a bare GET to example.amazonaws.com with no body, no query, and only
// the headers the signer itself injects.
func vanillaRequest() *HttpRequest {
	return NewHttpRequest("GET", RequestURL{
		Scheme: "https",
		Host:   "example.amazonaws.com",
		Path:   "/",
	}, EmptyBody())
}

func vanillaConfig() SigningConfig {
	signingTime, err := time.Parse(timeFormat, "20150830T123600Z")
	if err != nil {
		panic(err)
	}
	return NewSigningConfig("us-east-1", "service", signingTime)
}

func TestCanonicalizeVanillaRequest(t *testing.T) {
	cfg := vanillaConfig()
	creds := Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY"}

	cr, err := canonicalize(vanillaRequest(), cfg, creds)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}

	want := strings.Join([]string{
		"GET",
		"/",
		"",
		"host:example.amazonaws.com",
		"x-amz-date:20150830T123600Z",
		"",
		"host;x-amz-date",
		emptyStringSHA256Hex,
	}, "\n")

	if cr.CanonicalString != want {
		t.Fatalf("canonical string mismatch:\ngot:\n%s\nwant:\n%s", cr.CanonicalString, want)
	}
	if cr.SignedHeaders != "host;x-amz-date" {
		t.Fatalf("signed headers = %q, want host;x-amz-date", cr.SignedHeaders)
	}
	if cr.PayloadHash != emptyStringSHA256Hex {
		t.Fatalf("payload hash = %q, want empty-string sentinel", cr.PayloadHash)
	}
}

func TestCanonicalizeRejectsMissingHost(t *testing.T) {
	req := NewHttpRequest("GET", RequestURL{Scheme: "https", Path: "/"}, EmptyBody())
	_, err := canonicalize(req, vanillaConfig(), Credentials{AccessKeyID: "AKID", SecretAccessKey: "secret"})
	if err == nil {
		t.Fatal("expected an error for a request with no host")
	}
	serr, ok := err.(*SigningError)
	if !ok || serr.Kind != ErrInvalidRequest {
		t.Fatalf("got %v, want ErrInvalidRequest", err)
	}
}

func TestUriEncodeUnreservedPassthrough(t *testing.T) {
	if got := uriEncode("abc-_.~XYZ019", false); got != "abc-_.~XYZ019" {
		t.Fatalf("uriEncode unreserved = %q", got)
	}
}

func TestUriEncodeEscapesReserved(t *testing.T) {
	if got := uriEncode("a b/c", false); got != "a%20b%2Fc" {
		t.Fatalf("uriEncode reserved = %q", got)
	}
	if got := uriEncode("a b/c", true); got != "a%20b/c" {
		t.Fatalf("uriEncode preserveSlash = %q", got)
	}
}

func TestNormalizePathCollapsesDotSegments(t *testing.T) {
	cases := map[string]string{
		"/a/b/../c": "/a/c",
		"/a/./b":    "/a/b",
		"//a//b":    "/a/b",
		"":          "/",
		"/a/b/":     "/a/b/",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalURIDisablesNormalizationForS3(t *testing.T) {
	cfg := vanillaConfig().ForS3()
	if got := canonicalURI("/a//b/../c", cfg); got != "/a//b/../c" {
		t.Fatalf("S3 canonical URI = %q, want path left alone", got)
	}
}

func TestCanonicalQueryStringSortsByKeyThenValue(t *testing.T) {
	q := url.Values{}
	q.Add("b", "2")
	q.Add("a", "2")
	q.Add("a", "1")

	got := canonicalQueryString(q)
	want := "a=1&a=2&b=2"
	if got != want {
		t.Fatalf("canonicalQueryString = %q, want %q", got, want)
	}
}

func TestCanonicalQueryStringEmpty(t *testing.T) {
	if got := canonicalQueryString(nil); got != "" {
		t.Fatalf("canonicalQueryString(nil) = %q, want empty", got)
	}
}

func TestTrimHeaderValueCollapsesWhitespaceOutsideQuotes(t *testing.T) {
	got, err := trimHeaderValue("  a    b  \"c   d\"  ")
	if err != nil {
		t.Fatalf("trimHeaderValue: %v", err)
	}
	if got != `a b "c   d"` {
		t.Fatalf("trimHeaderValue = %q", got)
	}
}

func TestTrimHeaderValueRejectsEmbeddedNewline(t *testing.T) {
	if _, err := trimHeaderValue("a\nb"); err == nil {
		t.Fatal("expected error for embedded newline")
	}
}

func TestSignedHeaderNamesAlwaysIncludesHostAndXAmz(t *testing.T) {
	h := NewHeaders()
	h.Set("Host", "example.amazonaws.com")
	h.Set("X-Amz-Date", "20150830T123600Z")
	h.Set("User-Agent", "test-agent/1.0")
	h.Set("Content-Type", "application/json")

	names := signedHeaderNames(h, vanillaConfig(), false)
	joined := strings.Join(names, ";")
	if !strings.Contains(joined, "host") || !strings.Contains(joined, "x-amz-date") || !strings.Contains(joined, "content-type") {
		t.Fatalf("signed headers missing required entries: %v", names)
	}
	if strings.Contains(joined, "user-agent") {
		t.Fatalf("user-agent must never be signed: %v", names)
	}
}
