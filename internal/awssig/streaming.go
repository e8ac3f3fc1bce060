package awssig

import (
	"context"
	"strconv"
)

// SignStreamingRequest signs req for a chunked upload (spec §2's
// streaming data flow): it resolves credentials once, computes the
// seed signature against the appropriate STREAMING-* payload-hash
// sentinel, then wraps req's stream body in a ChunkedBodyEncoder that
// signs each chunk — and, if trailer is non-nil, a trailing headers
// block — as the HTTP engine reads it.
//
// req.Body must be a stream body; decodedLength, if >= 0, is recorded
// in X-Amz-Decoded-Content-Length so the receiving service knows the
// unframed payload size.
func (s *Signer) SignStreamingRequest(ctx context.Context, req *HttpRequest, decodedLength int64, cfg SigningConfig, provider CredentialsProvider, chunkSize int, trailer TrailerFunc) (SigningResult[*HttpRequest], error) {
	var zero SigningResult[*HttpRequest]

	if req.Body.Kind() != BodyStream {
		return zero, invalidRequestf("streaming signing requires a stream body")
	}

	sentinel := StreamingAWS4HMACSHA256Payload
	if trailer != nil {
		sentinel = StreamingAWS4HMACSHA256PayloadTrailer
	}
	seedCfg := cfg
	seedCfg.HashSpecification = HashLiteral(sentinel)

	creds, err := provider.Resolve(ctx)
	if err != nil {
		return zero, credentialsError(err)
	}

	upstream := req.Body.Reader()
	seeded, err := s.Sign(ctx, req, seedCfg, StaticCredentialsProvider{Credentials: creds})
	if err != nil {
		return zero, err
	}

	encoder := NewChunkedBodyEncoder(upstream, s, cfg, creds, seeded.Signature, chunkSize, trailer)
	seeded.Output.Headers.Set("Content-Encoding", "aws-chunked")
	if decodedLength >= 0 {
		seeded.Output.Headers.Set("X-Amz-Decoded-Content-Length", strconv.FormatInt(decodedLength, 10))
	}
	seeded.Output.Body = StreamBody(encoder, -1)

	return SigningResult[*HttpRequest]{Output: seeded.Output, Signature: seeded.Signature}, nil
}
