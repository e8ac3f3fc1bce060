package awssig

import "fmt"

// EncodeQuery renders a URL query exactly as the canonicalizer does:
// strict RFC 3986 percent-encoding, sorted by encoded key then
// encoded value. Callers serializing a signed HttpRequest to the wire
// must use this (not net/url's '+'-for-space encoding) so the
// transmitted query string matches byte-for-byte what was signed —
// required for presigned URLs, since the injected X-Amz-* parameters
// were canonicalized this way (spec §4.3).
func EncodeQuery(query map[string][]string) string {
	return canonicalQueryString(query)
}

// mutateRequest attaches the computed signature to the canonicalized
// request: an Authorization header in header mode, or an
// X-Amz-Signature query parameter (alongside the parameters the
// canonicalizer already injected) in query-parameter mode. Chunk and
// chunk-trailer signature types make no request mutation; the signer
// façade returns just the signature for those.
func mutateRequest(cr *CanonicalRequest, cfg SigningConfig, creds Credentials, signatureHex string) *HttpRequest {
	req := cr.Request

	switch cfg.SignatureType {
	case SignatureTypeQueryParams:
		req.URL.Query.Set("X-Amz-Signature", signatureHex)
	case SignatureTypeChunk, SignatureTypeChunkTrailer:
		// No request mutation; only the signature is returned.
	default:
		req.Headers.Set("Authorization", fmt.Sprintf(
			"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
			algorithmName, creds.AccessKeyID, cfg.CredentialScope(), cr.SignedHeaders, signatureHex,
		))
	}

	return req
}
