package awssig

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

// DefaultChunkSize is the chunk size the encoder uses when the caller
// doesn't specify one (spec §4.5).
const DefaultChunkSize = 64 * 1024

// TrailerFunc computes the trailing headers to sign and emit once the
// upstream body has been fully consumed — e.g. a running checksum
// accumulated while chunks were read.
type TrailerFunc func() (*Headers, error)

type chunkedState int

const (
	chunkedReading chunkedState = iota
	chunkedDone
)

// ChunkedBodyEncoder wraps an upstream byte stream and presents the
// aws-chunked wire encoding of spec §4.5 on Read: each chunk is framed
// with its own chunk-signature, followed by a zero-length final chunk
// and, if a TrailerFunc is configured, a signed trailing headers
// block. Signing is synchronous CPU work performed inline with Read;
// a single encoder is not safe for concurrent reads, exactly like any
// other io.Reader — callers must serialize access.
type ChunkedBodyEncoder struct {
	upstream  io.Reader
	signer    *Signer
	cfg       SigningConfig
	creds     Credentials
	trailer   TrailerFunc
	chunkSize int

	prevSignature string
	state         chunkedState
	pending       bytes.Buffer
	readBuf       []byte
	err           error
}

// NewChunkedBodyEncoder constructs an encoder seeded with the
// signature produced by the request's initial (non-streaming) Sign
// call. chunkSize <= 0 selects DefaultChunkSize.
func NewChunkedBodyEncoder(upstream io.Reader, signer *Signer, cfg SigningConfig, creds Credentials, seedSignature string, chunkSize int, trailer TrailerFunc) *ChunkedBodyEncoder {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunkCfg := cfg
	chunkCfg.SignatureType = SignatureTypeChunk

	return &ChunkedBodyEncoder{
		upstream:      upstream,
		signer:        signer,
		cfg:           chunkCfg,
		creds:         creds,
		trailer:       trailer,
		chunkSize:     chunkSize,
		prevSignature: seedSignature,
		readBuf:       make([]byte, chunkSize),
	}
}

// Read implements io.Reader, producing framed aws-chunked bytes. Any
// upstream I/O error or signing failure poisons the encoder: it is
// recorded and returned on every subsequent Read without re-running
// signing (spec §4.5 failure semantics).
func (c *ChunkedBodyEncoder) Read(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}

	for c.pending.Len() == 0 {
		if c.state == chunkedDone {
			return 0, io.EOF
		}
		if err := c.fillPending(); err != nil {
			c.err = err
			return 0, err
		}
	}

	return c.pending.Read(p)
}

// Close releases the upstream reader if it is an io.Closer.
func (c *ChunkedBodyEncoder) Close() error {
	if closer, ok := c.upstream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *ChunkedBodyEncoder) fillPending() error {
	n, err := io.ReadFull(c.upstream, c.readBuf)
	switch {
	case err == nil:
		return c.emitDataChunk(c.readBuf[:n])
	case err == io.ErrUnexpectedEOF || err == io.EOF:
		if n > 0 {
			if ferr := c.emitDataChunk(c.readBuf[:n]); ferr != nil {
				return ferr
			}
		}
		return c.emitFinal()
	default:
		return ioError(err)
	}
}

func (c *ChunkedBodyEncoder) emitDataChunk(data []byte) error {
	result, err := c.signer.SignChunk(data, c.prevSignature, c.cfg, c.creds)
	if err != nil {
		return signingErrorf(err, "failed to sign chunk")
	}
	c.prevSignature = result.Signature
	c.pending.Write(frameChunk(data, result.Signature))
	return nil
}

func (c *ChunkedBodyEncoder) emitFinal() error {
	result, err := c.signer.SignChunk(nil, c.prevSignature, c.cfg, c.creds)
	if err != nil {
		return signingErrorf(err, "failed to sign final chunk")
	}
	c.prevSignature = result.Signature

	if c.trailer == nil {
		c.pending.Write(frameFinalChunk(result.Signature))
		c.state = chunkedDone
		return nil
	}
	c.pending.Write(frameFinalChunkWithTrailer(result.Signature))

	trailerHeaders, err := c.trailer()
	if err != nil {
		return ioError(err)
	}

	trailerCfg := c.cfg
	trailerCfg.SignatureType = SignatureTypeChunkTrailer
	sigResult, err := c.signer.SignChunkTrailer(trailerHeaders, c.prevSignature, trailerCfg, c.creds)
	if err != nil {
		return signingErrorf(err, "failed to sign trailer")
	}
	c.pending.Write(frameTrailer(trailerHeaders, sigResult.Signature))
	c.state = chunkedDone
	return nil
}

// frameChunk renders one aws-chunked frame:
// <hex-chunk-size>;chunk-signature=<hex-signature>\r\n<chunk-bytes>\r\n
func frameChunk(data []byte, signatureHex string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%x;chunk-signature=%s\r\n", len(data), signatureHex)
	buf.Write(data)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// frameFinalChunk renders the terminal zero-length chunk frame when no
// trailer follows: the chunk line plus the blank-line terminator.
func frameFinalChunk(signatureHex string) []byte {
	return frameChunk(nil, signatureHex)
}

// frameFinalChunkWithTrailer renders the terminal zero-length chunk
// frame when a trailer block follows: a single \r\n after the chunk
// line, not the blank-line terminator, so the trailer headers written
// by frameTrailer follow immediately (spec §4.5).
func frameFinalChunkWithTrailer(signatureHex string) []byte {
	return []byte(fmt.Sprintf("0;chunk-signature=%s\r\n", signatureHex))
}

// frameTrailer renders the trailing headers block that terminates a
// chunked upload with trailers: each header, then the trailer
// signature, then a blank line.
func frameTrailer(h *Headers, signatureHex string) []byte {
	var buf bytes.Buffer
	names := h.Names()
	sort.Strings(names)
	for _, name := range names {
		for _, v := range h.Values(name) {
			fmt.Fprintf(&buf, "%s:%s\r\n", name, v)
		}
	}
	fmt.Fprintf(&buf, "x-amz-trailer-signature:%s\r\n", signatureHex)
	buf.WriteString("\r\n")
	return buf.Bytes()
}
