package awssig

import (
	"context"
	"sort"
	"sync"
)

// SigningResult is the outcome of any of the Signer's three
// operations: the produced output (a signed *HttpRequest for Sign,
// struct{} for the chunk operations) plus the hex signature that was
// computed.
type SigningResult[T any] struct {
	Output    T
	Signature string // lowercase hex, the "hex-encoded ASCII" form of spec §3
}

// Signer is the façade composing the Canonicalizer, SignatureCalculator,
// and RequestMutator behind the three operations a caller needs:
// sign, signChunk, signChunkTrailer (spec §4.4). It is a value type —
// the optional signing-key cache is the only shared mutable state, and
// it is mutex-guarded.
type Signer struct {
	calc  signatureCalculator
	cache *keyCache
}

// NewSigner returns a Signer with no key cache: every call derives its
// own signing key from scratch.
func NewSigner() *Signer {
	return &Signer{}
}

// NewCachingSigner returns a Signer that reuses a derived signing key
// across calls sharing the same (accessKeyId, scope date, region,
// service), per spec §5. Entries are evicted once the scope date
// rolls over.
func NewCachingSigner() *Signer {
	return &Signer{cache: newKeyCache()}
}

// Sign resolves credentials via provider, canonicalizes req, computes
// its signature, and returns a new HttpRequest carrying either an
// Authorization header or presigned-URL query parameters.
func (s *Signer) Sign(ctx context.Context, req *HttpRequest, cfg SigningConfig, provider CredentialsProvider) (SigningResult[*HttpRequest], error) {
	var zero SigningResult[*HttpRequest]

	if cfg.Algorithm != SigV4 {
		return zero, unsupportedAlgorithm()
	}

	creds, err := provider.Resolve(ctx)
	if err != nil {
		return zero, credentialsError(err)
	}

	select {
	case <-ctx.Done():
		return zero, cancelled(ctx.Err())
	default:
	}

	cr, err := canonicalize(req, cfg, creds)
	if err != nil {
		return zero, err
	}

	key := s.signingKeyFor(cfg, creds)
	stringToSign := s.calc.stringToSign(cr.CanonicalString, cfg)
	signature := s.calc.calculate(key, stringToSign)
	if s.cache == nil {
		zeroize(key)
	}

	signedReq := mutateRequest(cr, cfg, creds, signature)

	return SigningResult[*HttpRequest]{Output: signedReq, Signature: signature}, nil
}

// SignChunk computes the signature for one streaming chunk body,
// chaining from prevSignature (the seed signature on the first call,
// the prior chunk's signature thereafter). It performs no I/O and is
// pure given creds.
func (s *Signer) SignChunk(chunk []byte, prevSignature string, cfg SigningConfig, creds Credentials) (SigningResult[struct{}], error) {
	var zero SigningResult[struct{}]
	if cfg.Algorithm != SigV4 {
		return zero, unsupportedAlgorithm()
	}

	key := s.signingKeyFor(cfg, creds)
	sts := s.calc.chunkStringToSign(chunk, prevSignature, cfg)
	signature := s.calc.calculate(key, sts)
	if s.cache == nil {
		zeroize(key)
	}

	return SigningResult[struct{}]{Signature: signature}, nil
}

// SignChunkTrailer computes the signature over the canonicalized
// trailing headers block that terminates a chunked upload.
func (s *Signer) SignChunkTrailer(trailer *Headers, prevSignature string, cfg SigningConfig, creds Credentials) (SigningResult[struct{}], error) {
	var zero SigningResult[struct{}]
	if cfg.Algorithm != SigV4 {
		return zero, unsupportedAlgorithm()
	}

	names := trailer.Names()
	sort.Strings(names)
	canonical, err := canonicalHeadersBlock(trailer, names)
	if err != nil {
		return zero, err
	}

	key := s.signingKeyFor(cfg, creds)
	sts := s.calc.trailerStringToSign(canonical, prevSignature, cfg)
	signature := s.calc.calculate(key, sts)
	if s.cache == nil {
		zeroize(key)
	}

	return SigningResult[struct{}]{Signature: signature}, nil
}

func (s *Signer) signingKeyFor(cfg SigningConfig, creds Credentials) []byte {
	if s.cache == nil {
		return s.calc.signingKey(cfg, creds)
	}
	return s.cache.get(cfg, creds, s.calc)
}

// cacheKey identifies a derived signing key: it is valid for exactly
// one scope date, per spec §5.
type cacheKey struct {
	accessKeyID string
	scopeDate   string
	region      string
	service     string
}

// keyCache is a mutex-guarded cache of derived signing keys, keyed by
// (accessKeyId, scope date, region, service). Entries for a stale
// scope date are dropped lazily on the next lookup for that identity.
type keyCache struct {
	mu      sync.Mutex
	entries map[cacheKey][]byte
}

func newKeyCache() *keyCache {
	return &keyCache{entries: make(map[cacheKey][]byte)}
}

func (c *keyCache) get(cfg SigningConfig, creds Credentials, calc signatureCalculator) []byte {
	key := cacheKey{
		accessKeyID: creds.AccessKeyID,
		scopeDate:   cfg.scopeDate(),
		region:      cfg.Region,
		service:     cfg.Service,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		return existing
	}

	// Evict any entry for this identity under a stale scope date.
	for k := range c.entries {
		if k.accessKeyID == key.accessKeyID && k.region == key.region &&
			k.service == key.service && k.scopeDate != key.scopeDate {
			zeroize(c.entries[k])
			delete(c.entries, k)
		}
	}

	derived := calc.signingKey(cfg, creds)
	c.entries[key] = derived
	return derived
}
