package awssig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

const (
	algorithmName      = "AWS4-HMAC-SHA256"
	chunkAlgorithmName = "AWS4-HMAC-SHA256-PAYLOAD"
	trailerAlgorithmName = "AWS4-HMAC-SHA256-TRAILER"
	terminationString  = "aws4_request"
	timeFormat         = "20060102T150405Z"
	dateFormat         = "20060102"
)

// emptyStringSHA256Hex is sha256("") hex-encoded. It is used both as
// the payload hash for empty-body requests and as the constant fifth
// line of a chunk string-to-sign (spec §4.2).
const emptyStringSHA256Hex = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// sha256Hex returns the lowercase hex SHA-256 digest of data.
func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// sha256HexReader drains r through SHA-256 and returns the lowercase
// hex digest. Used to hash a replayable stream body.
func sha256HexReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hmacSHA256 computes HMAC-SHA256(key, data).
func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// hmacSHA256Hex computes the lowercase hex HMAC-SHA256(key, data).
func hmacSHA256Hex(key, data []byte) string {
	return hex.EncodeToString(hmacSHA256(key, data))
}

// zeroize overwrites a key buffer's backing array before it is
// dropped, per the spec §3/§5 zeroization requirement for derived
// signing keys.
func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
