package awssig

import (
	"context"
	"strings"
	"time"
)

// Credentials holds the AWS access key pair (and optional session
// token) used to derive a signing key.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// CredentialsProvider resolves Credentials, possibly performing I/O
// (an STS call, an instance-metadata fetch, a file read). It is the
// only collaborator the signer depends on for credential material.
type CredentialsProvider interface {
	Resolve(ctx context.Context) (Credentials, error)
}

// StaticCredentialsProvider resolves to a fixed set of Credentials.
type StaticCredentialsProvider struct {
	Credentials Credentials
}

// Resolve implements CredentialsProvider.
func (p StaticCredentialsProvider) Resolve(context.Context) (Credentials, error) {
	return p.Credentials, nil
}

// SigningAlgorithm selects the signing scheme. Only SigV4 is
// implemented by this core; SigV4Asymmetric is reserved for a future
// SigV4a variant (spec §1 non-goal).
type SigningAlgorithm int

const (
	SigV4 SigningAlgorithm = iota
	SigV4Asymmetric
)

// AwsSignatureType selects where the signature material is attached
// and which string-to-sign variant is computed.
type AwsSignatureType int

const (
	SignatureTypeHeaders AwsSignatureType = iota
	SignatureTypeQueryParams
	SignatureTypeChunk
	SignatureTypeChunkTrailer
	SignatureTypeEvent
)

// SignedBodyHeader controls whether the resolved payload hash is also
// emitted as the X-Amz-Content-Sha256 header.
type SignedBodyHeader int

const (
	SignedBodyHeaderNone SignedBodyHeader = iota
	SignedBodyHeaderXAmzContentSHA256
)

// Streaming payload hash sentinels (spec §6).
const (
	UnsignedPayload                     = "UNSIGNED-PAYLOAD"
	StreamingAWS4HMACSHA256Payload       = "STREAMING-AWS4-HMAC-SHA256-PAYLOAD"
	StreamingAWS4HMACSHA256PayloadTrailer = "STREAMING-AWS4-HMAC-SHA256-PAYLOAD-TRAILER"
	StreamingUnsignedPayloadTrailer      = "STREAMING-UNSIGNED-PAYLOAD-TRAILER"
)

// HashSpecification selects how the canonical request's payload hash
// is obtained: computed from the body, or supplied as a literal (one
// of the sentinels above, or a precomputed hex digest).
type HashSpecification struct {
	literal   string
	isLiteral bool
}

// CalculateFromPayload hashes the request body to produce the payload
// hash (the default).
func CalculateFromPayload() HashSpecification {
	return HashSpecification{}
}

// HashLiteral uses hex verbatim as the payload hash, bypassing any
// attempt to hash the body. hex may also be one of the STREAMING-* or
// UNSIGNED-PAYLOAD sentinels.
func HashLiteral(hex string) HashSpecification {
	return HashSpecification{literal: hex, isLiteral: true}
}

// IsLiteral reports whether this is a HashLiteral.
func (h HashSpecification) IsLiteral() bool { return h.isLiteral }

// Literal returns the literal value; only meaningful when IsLiteral.
func (h HashSpecification) Literal() string { return h.literal }

// HeaderPredicate decides whether an additional header (beyond the
// always-signed set) should be included in SignedHeaders.
type HeaderPredicate func(lowercaseName string) bool

// neverSignExtra is the default predicate: no header beyond the
// always-signed set is included.
func neverSignExtra(string) bool { return false }

// SigningConfig configures one signing operation. SigningTime is
// captured once by the caller and reused for the amz-date
// header/parameter, the credential scope, and key derivation — the
// three must agree to the instant (spec §3 invariant).
type SigningConfig struct {
	Region      string
	Service     string
	SigningTime time.Time

	Algorithm     SigningAlgorithm
	SignatureType AwsSignatureType

	HashSpecification HashSpecification
	SignedBodyHeader   SignedBodyHeader

	// UseDoubleURIEncode defaults to true; S3 sets it false.
	UseDoubleURIEncode bool
	// NormalizeURIPath defaults to true; S3 sets it false.
	NormalizeURIPath bool

	OmitSessionToken bool

	ShouldSignHeader HeaderPredicate

	// ExpiresAfter is the presigned-URL lifetime; only meaningful for
	// SignatureTypeQueryParams.
	ExpiresAfter time.Duration
}

// NewSigningConfig returns a SigningConfig with spec-mandated defaults
// (double URI encoding and path normalization on, i.e. "not S3").
func NewSigningConfig(region, service string, signingTime time.Time) SigningConfig {
	return SigningConfig{
		Region:             region,
		Service:            service,
		SigningTime:        signingTime,
		Algorithm:          SigV4,
		SignatureType:      SignatureTypeHeaders,
		HashSpecification:  CalculateFromPayload(),
		SignedBodyHeader:   SignedBodyHeaderNone,
		UseDoubleURIEncode: true,
		NormalizeURIPath:   true,
		ShouldSignHeader:   neverSignExtra,
	}
}

// ForS3 returns a copy of cfg adjusted for S3's disabled double-escaping
// and path normalization (spec §4.1 edge case, §9 open question).
func (c SigningConfig) ForS3() SigningConfig {
	c.UseDoubleURIEncode = false
	c.NormalizeURIPath = false
	return c
}

// IsS3 reports whether this config matches S3's canonicalization rules,
// used by the canonicalizer to decide whether to collapse duplicate
// slashes and re-percent-encode the path.
func (c SigningConfig) IsS3() bool {
	return strings.EqualFold(c.Service, "s3") || (!c.UseDoubleURIEncode && !c.NormalizeURIPath)
}

func (c SigningConfig) scopeDate() string {
	return c.SigningTime.UTC().Format(dateFormat)
}

func (c SigningConfig) amzDate() string {
	return c.SigningTime.UTC().Format(timeFormat)
}

// CredentialScope renders "yyyyMMdd/region/service/aws4_request".
func (c SigningConfig) CredentialScope() string {
	return c.scopeDate() + "/" + c.Region + "/" + c.Service + "/" + terminationString
}

func (c SigningConfig) headerPredicate() HeaderPredicate {
	if c.ShouldSignHeader == nil {
		return neverSignExtra
	}
	return c.ShouldSignHeader
}
