package awssig

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestChunkedBodyEncoderFramesDataAndFinalChunk(t *testing.T) {
	signer := NewSigner()
	cfg := vanillaConfig()
	creds := testCreds()
	seed := strings.Repeat("0", 64)

	body := bytes.Repeat([]byte("x"), 10)
	enc := NewChunkedBodyEncoder(bytes.NewReader(body), signer, cfg, creds, seed, 4, nil)

	out, err := io.ReadAll(enc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	frames := strings.Split(string(out), "\r\n")
	// 3 data chunks (4, 4, 2 bytes) + 1 final chunk, each contributing a
	// header line and a body line, plus the trailing empty split piece.
	if !strings.Contains(string(out), "4;chunk-signature=") {
		t.Fatalf("missing first chunk header: %q", out)
	}
	if !strings.Contains(string(out), "2;chunk-signature=") {
		t.Fatalf("missing remainder chunk header: %q", out)
	}
	if !strings.Contains(string(out), "0;chunk-signature=") {
		t.Fatalf("missing final zero-length chunk: %q", out)
	}
	if len(frames) < 8 {
		t.Fatalf("expected at least 8 CRLF-delimited pieces, got %d: %q", len(frames), frames)
	}
	if !bytes.HasSuffix(out, []byte("\r\n\r\n")) {
		t.Fatalf("encoding without a trailer must end with the final chunk's blank line: %q", out)
	}
}

func TestChunkedBodyEncoderEmptyUpstreamStillEmitsFinalChunk(t *testing.T) {
	signer := NewSigner()
	cfg := vanillaConfig()
	creds := testCreds()
	seed := strings.Repeat("0", 64)

	enc := NewChunkedBodyEncoder(bytes.NewReader(nil), signer, cfg, creds, seed, 64*1024, nil)
	out, err := io.ReadAll(enc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !strings.HasPrefix(string(out), "0;chunk-signature=") {
		t.Fatalf("expected only the final zero-length chunk, got %q", out)
	}
}

func TestChunkedBodyEncoderEmitsSignedTrailer(t *testing.T) {
	signer := NewSigner()
	cfg := vanillaConfig()
	creds := testCreds()
	seed := strings.Repeat("0", 64)

	trailer := func() (*Headers, error) {
		h := NewHeaders()
		h.Set("x-amz-checksum-crc32c", "AAAAAA==")
		return h, nil
	}

	enc := NewChunkedBodyEncoder(strings.NewReader("payload"), signer, cfg, creds, seed, 1024, trailer)
	out, err := io.ReadAll(enc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	if !strings.Contains(string(out), "x-amz-checksum-crc32c:AAAAAA==\r\n") {
		t.Fatalf("trailer header missing: %q", out)
	}
	if !strings.Contains(string(out), "x-amz-trailer-signature:") {
		t.Fatalf("trailer signature missing: %q", out)
	}
	if !bytes.HasSuffix(out, []byte("\r\n\r\n")) {
		t.Fatalf("trailer block must end with a blank line: %q", out)
	}
	// The final zero-length chunk frame must be followed immediately by
	// the trailer headers, not by a spurious blank line — a real
	// aws-chunked parser reads zero trailers and chokes on the header
	// bytes if one sneaks in here.
	finalIdx := strings.Index(string(out), "0;chunk-signature=")
	if finalIdx < 0 {
		t.Fatalf("missing final zero-length chunk: %q", out)
	}
	afterFinal := string(out)[finalIdx:]
	lineEnd := strings.Index(afterFinal, "\r\n")
	if lineEnd < 0 {
		t.Fatalf("malformed final chunk frame: %q", afterFinal)
	}
	rest := afterFinal[lineEnd+2:]
	if strings.HasPrefix(rest, "\r\n") {
		t.Fatalf("final chunk frame must not be followed by a blank line when a trailer follows: %q", out)
	}
	if !strings.HasPrefix(rest, "x-amz-checksum-crc32c:") {
		t.Fatalf("trailer headers must follow the final chunk frame directly: %q", rest)
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestChunkedBodyEncoderPoisonsOnUpstreamError(t *testing.T) {
	signer := NewSigner()
	cfg := vanillaConfig()
	creds := testCreds()

	boom := io.ErrClosedPipe
	enc := NewChunkedBodyEncoder(errReader{boom}, signer, cfg, creds, strings.Repeat("0", 64), 64, nil)

	_, err := io.ReadAll(enc)
	if err == nil {
		t.Fatal("expected an error from a failing upstream reader")
	}
	// A second read must return the same poisoned error without
	// re-attempting to read or sign.
	buf := make([]byte, 1)
	if _, err2 := enc.Read(buf); err2 == nil {
		t.Fatal("expected encoder to stay poisoned after the first error")
	}
}

func TestDefaultChunkSizeUsedWhenUnspecified(t *testing.T) {
	signer := NewSigner()
	cfg := vanillaConfig()
	creds := testCreds()

	enc := NewChunkedBodyEncoder(strings.NewReader("x"), signer, cfg, creds, strings.Repeat("0", 64), 0, nil)
	if enc.chunkSize != DefaultChunkSize {
		t.Fatalf("chunkSize = %d, want %d", enc.chunkSize, DefaultChunkSize)
	}
}
