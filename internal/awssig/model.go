// Package awssig implements the AWS Signature Version 4 request-signing
// core of a Smithy-style client runtime: canonicalization, signature
// calculation, request mutation, and the aws-chunked streaming body
// encoder used for chunked uploads.
package awssig

import (
	"io"
	"net/url"
	"strconv"
	"strings"
)

// RequestURL is the decomposed form of an HttpRequest's URL. Port is 0
// when the request relies on the scheme's default port.
type RequestURL struct {
	Scheme   string
	Host     string
	Port     int
	Path     string
	Query    url.Values
	UserInfo string
	Fragment string
}

// HasDefaultPort reports whether Port is unset or matches the scheme's
// well-known default, in which case it must be omitted from the Host
// header per spec edge-case policy.
func (u RequestURL) HasDefaultPort() bool {
	if u.Port == 0 {
		return true
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		return u.Port == 80
	case "https":
		return u.Port == 443
	}
	return false
}

// HostHeaderValue renders the Host header value for this URL: the bare
// host, with a non-default port appended.
func (u RequestURL) HostHeaderValue() string {
	if u.HasDefaultPort() {
		return u.Host
	}
	return u.Host + ":" + strconv.Itoa(u.Port)
}

// cloneQuery deep-copies a url.Values so a clone's query-parameter
// injections never leak back into the source map.
func cloneQuery(q url.Values) url.Values {
	if q == nil {
		return nil
	}
	out := make(url.Values, len(q))
	for k, values := range q {
		out[k] = append([]string(nil), values...)
	}
	return out
}

// headerEntry preserves one occurrence of a header as it was added,
// so that duplicate-valued headers keep request order.
type headerEntry struct {
	name  string // original case as supplied
	value string
}

// Headers is a case-insensitive, order-preserving multimap of HTTP
// header names to values. The zero value is ready to use.
type Headers struct {
	entries []headerEntry
}

// NewHeaders returns an empty Headers.
func NewHeaders() *Headers {
	return &Headers{}
}

// Add appends a value for name, preserving any existing values.
func (h *Headers) Add(name, value string) {
	h.entries = append(h.entries, headerEntry{name: name, value: value})
}

// Set replaces all existing values for name with the single value given.
func (h *Headers) Set(name, value string) {
	h.Del(name)
	h.Add(name, value)
}

// Del removes all values for name.
func (h *Headers) Del(name string) {
	lower := strings.ToLower(name)
	out := h.entries[:0]
	for _, e := range h.entries {
		if strings.ToLower(e.name) != lower {
			out = append(out, e)
		}
	}
	h.entries = out
}

// Values returns all values for name in request order, or nil if the
// header is absent.
func (h *Headers) Values(name string) []string {
	lower := strings.ToLower(name)
	var out []string
	for _, e := range h.entries {
		if strings.ToLower(e.name) == lower {
			out = append(out, e.value)
		}
	}
	return out
}

// Get returns the first value for name, and whether it was present.
func (h *Headers) Get(name string) (string, bool) {
	vs := h.Values(name)
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Has reports whether name has at least one value.
func (h *Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Names returns the distinct, lowercased header names present, in
// first-occurrence order.
func (h *Headers) Names() []string {
	seen := map[string]bool{}
	var names []string
	for _, e := range h.entries {
		lower := strings.ToLower(e.name)
		if !seen[lower] {
			seen[lower] = true
			names = append(names, lower)
		}
	}
	return names
}

// Clone returns a deep copy of h.
func (h *Headers) Clone() *Headers {
	if h == nil {
		return NewHeaders()
	}
	out := &Headers{entries: make([]headerEntry, len(h.entries))}
	copy(out.entries, h.entries)
	return out
}

// BodyKind identifies which of the three HttpRequest body variants is
// in play; the signer only needs to distinguish "can I hash this
// directly" from "must I trust an override".
type BodyKind int

const (
	// BodyEmpty is a request with no body.
	BodyEmpty BodyKind = iota
	// BodyBytes is an in-memory body of known length.
	BodyBytes
	// BodyStream is a reader, with optional known length and a
	// replayable flag (whether it can be rewound to hash and resend).
	BodyStream
)

// Body is the sum-type body abstraction described in spec §3/§9: empty,
// in-memory bytes with known length, or a stream with optional known
// length and a replayable flag.
type Body struct {
	kind       BodyKind
	bytes      []byte
	stream     io.Reader
	seeker     io.Seeker // non-nil only when stream is also replayable
	length     int64
	hasLength  bool
	replayable bool
}

// EmptyBody returns a Body representing no payload.
func EmptyBody() Body {
	return Body{kind: BodyEmpty}
}

// BytesBody wraps an in-memory payload of known length.
func BytesBody(b []byte) Body {
	return Body{kind: BodyBytes, bytes: b, length: int64(len(b)), hasLength: true}
}

// StreamBody wraps a reader. If r also implements io.Seeker, the
// stream is treated as replayable: the signer may drain it to compute
// a payload hash and then seek back to the start. length < 0 means
// unknown.
func StreamBody(r io.Reader, length int64) Body {
	b := Body{kind: BodyStream, stream: r}
	if length >= 0 {
		b.length = length
		b.hasLength = true
	}
	if seeker, ok := r.(io.Seeker); ok {
		b.seeker = seeker
		b.replayable = true
	}
	return b
}

// Kind reports which body variant this is.
func (b Body) Kind() BodyKind { return b.kind }

// Len returns the known length and whether it is known.
func (b Body) Len() (int64, bool) { return b.length, b.hasLength }

// Replayable reports whether a stream body can be hashed and rewound.
func (b Body) Replayable() bool { return b.kind != BodyStream || b.replayable }

// Bytes returns the in-memory payload; only valid for BodyBytes.
func (b Body) Bytes() []byte { return b.bytes }

// Reader returns the underlying stream; only valid for BodyStream.
func (b Body) Reader() io.Reader { return b.stream }

// Seek rewinds a replayable stream body to its start.
func (b Body) Seek() error {
	if b.seeker == nil {
		return nil
	}
	_, err := b.seeker.Seek(0, io.SeekStart)
	return err
}

// HttpRequest is the mutable record the signer operates on: method,
// decomposed URL, header multimap, and body. It doubles as its own
// builder — signing mutates a Clone() of the caller's request, never
// the original, matching the spec's "immutable in, builder out"
// contract without introducing a parallel builder type.
type HttpRequest struct {
	Method  string
	URL     RequestURL
	Headers *Headers
	Body    Body
}

// NewHttpRequest constructs a request with an initialized header map.
func NewHttpRequest(method string, url RequestURL, body Body) *HttpRequest {
	return &HttpRequest{Method: method, URL: url, Headers: NewHeaders(), Body: body}
}

// Clone returns a deep copy safe for the canonicalizer to mutate.
// URL.Query is a map under the hood; without copying it here, query-
// mode signing would inject X-Amz-* parameters (including the final
// X-Amz-Signature) straight into the caller's original request,
// breaking determinism on any subsequent Sign of the same request.
func (r *HttpRequest) Clone() *HttpRequest {
	clonedURL := r.URL
	clonedURL.Query = cloneQuery(r.URL.Query)
	return &HttpRequest{
		Method:  r.Method,
		URL:     clonedURL,
		Headers: r.Headers.Clone(),
		Body:    r.Body,
	}
}
