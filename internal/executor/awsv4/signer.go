// Package awsv4 signs *http.Request values for S3-compatible
// endpoints. It is a thin adapter over internal/awssig's request-model
// agnostic signing core: it converts an *http.Request into an
// awssig.HttpRequest, signs it, and copies the resulting headers back.
package awsv4

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ethanadams/sigv4-signer/internal/awssig"
)

const serviceName = "s3"

// Credentials holds AWS credentials for signing requests.
type Credentials struct {
	AccessKey string
	SecretKey string
	Region    string
}

func (c Credentials) resolve() awssig.Credentials {
	return awssig.Credentials{AccessKeyID: c.AccessKey, SecretAccessKey: c.SecretKey}
}

// Signer signs *http.Request values against the awssig signing core,
// reusing a derived signing key across calls that share a scope date
// (spec-core §5) instead of re-deriving it on every Sign call.
type Signer struct {
	creds Credentials
	core  *awssig.Signer
}

// NewSigner creates a signer that caches the day's derived signing key.
func NewSigner(creds Credentials) *Signer {
	return &Signer{creds: creds, core: awssig.NewCachingSigner()}
}

// Sign signs req in place using UNSIGNED-PAYLOAD, the usual posture for
// streaming S3 uploads where the body isn't available to hash upfront.
func (s *Signer) Sign(req *http.Request) error {
	return signInPlace(s.core, req, s.creds, awssig.HashLiteral(awssig.UnsignedPayload), time.Now())
}

// SignRequest signs req. payload, if non-nil, is hashed to produce the
// signed payload hash; if nil, UNSIGNED-PAYLOAD is used, and the
// request is expected to be sent with a body that was not covered by
// the signature (appropriate for SignRequestStreaming's caller).
func SignRequest(req *http.Request, creds Credentials, payload []byte) error {
	hashSpec := awssig.HashLiteral(awssig.UnsignedPayload)
	if payload != nil {
		hashSpec = awssig.HashLiteral(hashSHA256(payload))
	}
	return signInPlace(awssig.NewSigner(), req, creds, hashSpec, time.Now())
}

// SignRequestUnsigned signs req using UNSIGNED-PAYLOAD, skipping the
// cost of hashing the body. The server must accept unsigned payloads,
// as most S3-compatible services do.
func SignRequestUnsigned(req *http.Request, creds Credentials) error {
	return signInPlace(awssig.NewSigner(), req, creds, awssig.HashLiteral(awssig.UnsignedPayload), time.Now())
}

// SignRequestStreaming signs a request whose body will be streamed
// rather than buffered, using UNSIGNED-PAYLOAD.
func SignRequestStreaming(req *http.Request, creds Credentials) error {
	return SignRequest(req, creds, nil)
}

// HashPayload computes the SHA256 hash of a reader's content, hex
// encoded. Useful for pre-computing a payload hash before SignRequest
// when the body is available but the caller wants to avoid double
// buffering it inside the signer.
func HashPayload(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func signInPlace(core *awssig.Signer, req *http.Request, creds Credentials, hashSpec awssig.HashSpecification, now time.Time) error {
	cfg := awssig.NewSigningConfig(creds.Region, serviceName, now).ForS3()
	cfg.HashSpecification = hashSpec
	cfg.SignedBodyHeader = awssig.SignedBodyHeaderXAmzContentSHA256

	provider := awssig.StaticCredentialsProvider{Credentials: creds.resolve()}

	result, err := core.Sign(context.Background(), toHttpRequest(req), cfg, provider)
	if err != nil {
		return err
	}
	applySignedRequest(req, result.Output)
	return nil
}

func toHttpRequest(req *http.Request) *awssig.HttpRequest {
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	port := 0
	if p := req.URL.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
		host = req.URL.Hostname()
	}

	out := awssig.NewHttpRequest(req.Method, awssig.RequestURL{
		Scheme: req.URL.Scheme,
		Host:   host,
		Port:   port,
		Path:   req.URL.Path,
		Query:  req.URL.Query(),
	}, awssig.EmptyBody())

	for name, values := range req.Header {
		for _, v := range values {
			out.Headers.Add(name, v)
		}
	}
	return out
}

// applySignedRequest copies every header the canonicalizer and mutator
// added or changed — Host, X-Amz-Date, X-Amz-Content-Sha256,
// X-Amz-Security-Token, Authorization — back onto the live request.
func applySignedRequest(req *http.Request, signed *awssig.HttpRequest) {
	for _, name := range signed.Headers.Names() {
		values := signed.Headers.Values(name)
		req.Header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}
	if host, ok := signed.Headers.Get("Host"); ok {
		req.Host = host
	}
}
