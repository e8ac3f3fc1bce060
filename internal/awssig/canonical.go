package awssig

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// CanonicalRequest is the internal record produced by the
// Canonicalizer: the mutated request carrying any headers/parameters
// injected ahead of signing, the assembled canonical string, the
// sorted signed-header list, and the resolved payload hash.
type CanonicalRequest struct {
	Request       *HttpRequest
	CanonicalString string
	SignedHeaders string
	PayloadHash   string
}

// hopByHopExcluded are headers the canonicalizer never signs, even if
// they happen to be present (spec §4.1 edge-case policy).
var hopByHopExcluded = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailer":             true,
	"transfer-encoding":   true,
	"upgrade":             true,
	"x-amzn-trace-id":     true,
	"user-agent":          true,
	"expect":              true,
}

// alwaysSignedHeader reports whether name is always included in
// SignedHeaders regardless of shouldSignHeader. In query-parameter
// (presigned URL) mode, only host and x-amz-* are forced in — spec §6's
// presigned vector signs exactly "host", so content-type/content-length
// must not be dragged in just because they happen to be present on the
// in-memory request being presigned.
func alwaysSignedHeader(lower string, queryMode bool) bool {
	if lower == "host" {
		return true
	}
	if !queryMode && (lower == "content-type" || lower == "content-length") {
		return true
	}
	return strings.HasPrefix(lower, "x-amz-")
}

// canonicalize runs the full canonicalization algorithm of spec §4.1
// against a clone of req, returning the resulting CanonicalRequest.
func canonicalize(req *HttpRequest, cfg SigningConfig, creds Credentials) (*CanonicalRequest, error) {
	if req.URL.Host == "" {
		return nil, invalidRequestf("request has no host")
	}

	work := req.Clone()
	queryMode := cfg.SignatureType == SignatureTypeQueryParams

	if _, ok := work.Headers.Get("Host"); !ok {
		work.Headers.Set("Host", work.URL.HostHeaderValue())
	}

	if queryMode {
		work.Headers.Del("X-Amz-Date")
		work.Headers.Del("X-Amz-Security-Token")
	} else {
		work.Headers.Set("X-Amz-Date", cfg.amzDate())
		if creds.SessionToken != "" && !cfg.OmitSessionToken {
			work.Headers.Set("X-Amz-Security-Token", creds.SessionToken)
		}
	}

	payloadHash, err := resolvePayloadHash(work.Body, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.SignedBodyHeader == SignedBodyHeaderXAmzContentSHA256 {
		work.Headers.Set("X-Amz-Content-Sha256", payloadHash)
	}

	signedNames := signedHeaderNames(work.Headers, cfg, queryMode)
	signedHeaders := strings.Join(signedNames, ";")

	if queryMode {
		if work.URL.Query == nil {
			work.URL.Query = url.Values{}
		}
		work.URL.Query.Set("X-Amz-Algorithm", algorithmName)
		work.URL.Query.Set("X-Amz-Credential", creds.AccessKeyID+"/"+cfg.CredentialScope())
		work.URL.Query.Set("X-Amz-Date", cfg.amzDate())
		if cfg.ExpiresAfter > 0 {
			work.URL.Query.Set("X-Amz-Expires", strconv.FormatInt(int64(cfg.ExpiresAfter/1e9), 10))
		}
		work.URL.Query.Set("X-Amz-SignedHeaders", signedHeaders)
		if creds.SessionToken != "" && !cfg.OmitSessionToken {
			work.URL.Query.Set("X-Amz-Security-Token", creds.SessionToken)
		}
	}

	canonHeaders, err := canonicalHeadersBlock(work.Headers, signedNames)
	if err != nil {
		return nil, err
	}

	canonURI := canonicalURI(work.URL.Path, cfg)
	canonQuery := canonicalQueryString(work.URL.Query)

	canonicalString := strings.Join([]string{
		strings.ToUpper(work.Method),
		canonURI,
		canonQuery,
		canonHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	return &CanonicalRequest{
		Request:         work,
		CanonicalString: canonicalString,
		SignedHeaders:   signedHeaders,
		PayloadHash:     payloadHash,
	}, nil
}

func signedHeaderNames(h *Headers, cfg SigningConfig, queryMode bool) []string {
	pred := cfg.headerPredicate()
	var names []string
	for _, name := range h.Names() {
		if hopByHopExcluded[name] {
			continue
		}
		if alwaysSignedHeader(name, queryMode) || pred(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// trimHeaderValue strips leading/trailing ASCII whitespace and
// collapses internal runs of whitespace to a single space, except
// inside double-quoted spans. Embedded CR/LF is rejected rather than
// guessed at (spec §9 open question).
func trimHeaderValue(v string) (string, error) {
	if strings.ContainsAny(v, "\r\n") {
		return "", invalidRequestf("header value contains an embedded CR or LF")
	}
	v = strings.Trim(v, " \t")

	var sb strings.Builder
	inQuotes := false
	lastWasSpace := false
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '"' {
			inQuotes = !inQuotes
		}
		if !inQuotes && (c == ' ' || c == '\t') {
			if lastWasSpace {
				continue
			}
			lastWasSpace = true
			sb.WriteByte(' ')
			continue
		}
		lastWasSpace = false
		sb.WriteByte(c)
	}
	return sb.String(), nil
}

func canonicalHeadersBlock(h *Headers, signed []string) (string, error) {
	var sb strings.Builder
	for _, name := range signed {
		values := h.Values(name)
		trimmed := make([]string, len(values))
		for i, v := range values {
			t, err := trimHeaderValue(v)
			if err != nil {
				return "", err
			}
			trimmed[i] = t
		}
		sb.WriteString(name)
		sb.WriteByte(':')
		sb.WriteString(strings.Join(trimmed, ","))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func resolvePayloadHash(body Body, cfg SigningConfig) (string, error) {
	if cfg.HashSpecification.IsLiteral() {
		return cfg.HashSpecification.Literal(), nil
	}
	switch body.Kind() {
	case BodyEmpty:
		return emptyStringSHA256Hex, nil
	case BodyBytes:
		return sha256Hex(body.Bytes()), nil
	case BodyStream:
		if !body.Replayable() {
			return "", unsignablePayload("stream body is not replayable and no literal payload hash was supplied")
		}
		hash, err := sha256HexReader(body.Reader())
		if err != nil {
			return "", ioError(err)
		}
		if err := body.Seek(); err != nil {
			return "", ioError(err)
		}
		return hash, nil
	default:
		return "", invalidRequestf("unrecognized request body kind")
	}
}

// unreserved reports whether c needs no percent-encoding under AWS's
// strict RFC 3986 rule: letters, digits, '-', '_', '.', '~'.
func unreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

// uriEncode percent-encodes s byte-for-byte under the unreserved set
// above. When preserveSlash is true, '/' passes through unescaped
// (used for path segments, where '/' is the separator, not content).
func uriEncode(s string, preserveSlash bool) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) || (preserveSlash && c == '/') {
			sb.WriteByte(c)
		} else {
			fmt.Fprintf(&sb, "%%%02X", c)
		}
	}
	return sb.String()
}

// normalizePath collapses "." and ".." segments and duplicate slashes
// per RFC 3986 §5.2.4, preserving a trailing slash if present.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	hasTrailingSlash := len(path) > 1 && strings.HasSuffix(path, "/")

	segments := strings.Split(path, "/")
	stack := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}

	result := "/" + strings.Join(stack, "/")
	if hasTrailingSlash && result != "/" {
		result += "/"
	}
	return result
}

// canonicalURI renders the canonical URI for the request path,
// applying path normalization and single- or double-pass percent
// encoding per cfg (spec §4.1 step 4, §9 S3 open question).
func canonicalURI(path string, cfg SigningConfig) string {
	if path == "" {
		path = "/"
	}
	s3 := cfg.IsS3()
	if cfg.NormalizeURIPath && !s3 {
		path = normalizePath(path)
	}
	encoded := uriEncode(path, true)
	if cfg.UseDoubleURIEncode && !s3 {
		encoded = uriEncode(encoded, true)
	}
	return encoded
}

type queryPair struct {
	key   string
	value string
}

// canonicalQueryString renders the canonical query string: each
// decoded (key, value) pair percent-encoded under the strict
// RFC 3986 set, then sorted by encoded key and, for duplicate keys,
// by encoded value (spec §4.1 step 5).
func canonicalQueryString(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	var pairs []queryPair
	for k, values := range query {
		ek := uriEncode(k, false)
		for _, v := range values {
			pairs = append(pairs, queryPair{key: ek, value: uriEncode(v, false)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.key + "=" + p.value
	}
	return strings.Join(parts, "&")
}
