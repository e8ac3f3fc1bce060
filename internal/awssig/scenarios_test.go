package awssig

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"
)

// TestScenarioListUsersGet reproduces spec §8 scenario 1, the AWS
// published canonical-request test vector: a bare query-string GET
// against IAM.
func TestScenarioListUsersGet(t *testing.T) {
	signingTime, err := time.Parse(timeFormat, "20150830T123600Z")
	if err != nil {
		t.Fatal(err)
	}
	cfg := NewSigningConfig("us-east-1", "iam", signingTime)
	creds := Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY"}

	q := url.Values{}
	q.Set("Action", "ListUsers")
	q.Set("Version", "2010-05-08")

	req := NewHttpRequest("GET", RequestURL{
		Scheme: "https",
		Host:   "iam.amazonaws.com",
		Path:   "/",
		Query:  q,
	}, EmptyBody())
	req.Headers.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	cr, err := canonicalize(req, cfg, creds)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	wantSuffix := "content-type;host;x-amz-date\n" + emptyStringSHA256Hex
	if !strings.HasSuffix(cr.CanonicalString, wantSuffix) {
		t.Fatalf("canonical string = %q, want suffix %q", cr.CanonicalString, wantSuffix)
	}
	if cr.PayloadHash != emptyStringSHA256Hex {
		t.Fatalf("payload hash = %q, want %q", cr.PayloadHash, emptyStringSHA256Hex)
	}

	result, err := NewSigner().Sign(context.Background(), req, cfg, StaticCredentialsProvider{Credentials: creds})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	const wantSignature = "5d672d79c15b13162d9279b0855cfba6789a8edb4c82c400e06b5924a6f2b5d7"
	if result.Signature != wantSignature {
		t.Fatalf("signature = %s, want %s", result.Signature, wantSignature)
	}
	auth, ok := result.Output.Headers.Get("Authorization")
	if !ok {
		t.Fatal("Authorization header missing")
	}
	if !strings.Contains(auth, "Signature="+wantSignature) {
		t.Fatalf("Authorization header = %q, missing expected signature", auth)
	}
}

// TestScenarioS3PutBody reproduces spec §8 scenario 2: an S3 PUT with
// an in-memory body, single-pass encoding, and the body hash emitted
// as X-Amz-Content-Sha256.
func TestScenarioS3PutBody(t *testing.T) {
	signingTime, err := time.Parse(timeFormat, "20150830T123600Z")
	if err != nil {
		t.Fatal(err)
	}
	cfg := NewSigningConfig("us-east-1", "s3", signingTime).ForS3()
	cfg.SignedBodyHeader = SignedBodyHeaderXAmzContentSHA256
	creds := Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY"}

	body := []byte("Welcome to Amazon S3.")
	wantHash := sha256Hex(body)

	req := NewHttpRequest("PUT", RequestURL{
		Scheme: "https",
		Host:   "examplebucket.s3.amazonaws.com",
		Path:   "/test$file.text",
	}, BytesBody(body))

	result, err := NewSigner().Sign(context.Background(), req, cfg, StaticCredentialsProvider{Credentials: creds})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	gotHash, ok := result.Output.Headers.Get("X-Amz-Content-Sha256")
	if !ok {
		t.Fatal("X-Amz-Content-Sha256 header missing")
	}
	if gotHash != wantHash {
		t.Fatalf("X-Amz-Content-Sha256 = %s, want %s", gotHash, wantHash)
	}

	cr, err := canonicalize(req, cfg, creds)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if cr.PayloadHash != wantHash {
		t.Fatalf("payload hash line = %s, want %s", cr.PayloadHash, wantHash)
	}
	if !strings.HasSuffix(cr.CanonicalString, wantHash) {
		t.Fatalf("canonical string does not end with payload hash: %q", cr.CanonicalString)
	}
}

// TestScenarioPresignedURL reproduces spec §8 scenario 3: the same
// request as scenario 1, signed as a presigned URL instead.
func TestScenarioPresignedURL(t *testing.T) {
	signingTime, err := time.Parse(timeFormat, "20150830T123600Z")
	if err != nil {
		t.Fatal(err)
	}
	cfg := NewSigningConfig("us-east-1", "iam", signingTime)
	cfg.SignatureType = SignatureTypeQueryParams
	cfg.ExpiresAfter = 3600 * time.Second
	creds := Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY"}

	q := url.Values{}
	q.Set("Action", "ListUsers")
	q.Set("Version", "2010-05-08")

	req := NewHttpRequest("GET", RequestURL{
		Scheme: "https",
		Host:   "iam.amazonaws.com",
		Path:   "/",
		Query:  q,
	}, EmptyBody())
	req.Headers.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	result, err := NewSigner().Sign(context.Background(), req, cfg, StaticCredentialsProvider{Credentials: creds})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	query := result.Output.URL.Query
	if got := query.Get("X-Amz-Algorithm"); got != algorithmName {
		t.Fatalf("X-Amz-Algorithm = %s, want %s", got, algorithmName)
	}
	if got := query.Get("X-Amz-Date"); got != "20150830T123600Z" {
		t.Fatalf("X-Amz-Date = %s", got)
	}
	if got := query.Get("X-Amz-Expires"); got != "3600" {
		t.Fatalf("X-Amz-Expires = %s, want 3600", got)
	}
	if got := query.Get("X-Amz-SignedHeaders"); got != "host" {
		t.Fatalf("X-Amz-SignedHeaders = %s, want host", got)
	}
	if query.Get("X-Amz-Signature") == "" {
		t.Fatal("X-Amz-Signature missing")
	}

	encoded := EncodeQuery(query)
	wantCredentialParam := "X-Amz-Credential=AKIDEXAMPLE%2F20150830%2Fus-east-1%2Fiam%2Faws4_request"
	if !strings.Contains(encoded, wantCredentialParam) {
		t.Fatalf("encoded query = %q, missing %q", encoded, wantCredentialParam)
	}
}

// TestScenarioChunkedThreeSixtyFourKiBChunks reproduces spec §8
// scenario 4: 192 KiB of upstream data fed in 64 KiB increments,
// expecting three framed data chunks, each chunk-signature matching
// an independently recomputed signChunk, and a decoded-content-length
// of 196608.
func TestScenarioChunkedThreeSixtyFourKiBChunks(t *testing.T) {
	const chunkSize = 64 * 1024
	const decodedLength = 3 * chunkSize
	if decodedLength != 196608 {
		t.Fatalf("test setup: decodedLength = %d, want 196608", decodedLength)
	}

	signer := NewSigner()
	cfg := vanillaConfig()
	creds := testCreds()
	seed := strings.Repeat("0", 64)

	upstream := make([]byte, decodedLength)
	for i := range upstream {
		upstream[i] = byte(i)
	}

	enc := NewChunkedBodyEncoder(bytes.NewReader(upstream), signer, cfg, creds, seed, chunkSize, nil)

	chunkCfg := cfg
	chunkCfg.SignatureType = SignatureTypeChunk

	// Recompute the expected chain independently of the encoder.
	var wantSignatures []string
	prevSig := seed
	for i := 0; i < 3; i++ {
		result, err := signer.SignChunk(upstream[i*chunkSize:(i+1)*chunkSize], prevSig, chunkCfg, creds)
		if err != nil {
			t.Fatalf("SignChunk: %v", err)
		}
		wantSignatures = append(wantSignatures, result.Signature)
		prevSig = result.Signature
	}
	finalResult, err := signer.SignChunk(nil, prevSig, chunkCfg, creds)
	if err != nil {
		t.Fatalf("SignChunk(final): %v", err)
	}
	wantSignatures = append(wantSignatures, finalResult.Signature)

	out, err := io.ReadAll(enc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	for i, sig := range wantSignatures {
		if !strings.Contains(string(out), "chunk-signature="+sig) {
			t.Fatalf("missing expected chunk-signature for chunk %d (%s): %q", i, sig, out)
		}
	}

	dataChunkHeaderCount := strings.Count(string(out), "10000;chunk-signature=")
	if dataChunkHeaderCount != 3 {
		t.Fatalf("expected 3 framed 64 KiB data chunks, got %d: %q", dataChunkHeaderCount, out)
	}
	if !strings.Contains(string(out), "0;chunk-signature=") {
		t.Fatalf("missing final zero-length chunk: %q", out)
	}
}
