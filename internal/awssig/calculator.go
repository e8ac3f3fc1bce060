package awssig

import "strings"

// signatureCalculator derives signing keys and computes hex signatures
// from pre-assembled canonical strings (spec §4.2). It holds no state;
// every method is a pure function of its arguments.
type signatureCalculator struct{}

// stringToSign builds the algorithm-tagged, date-and-scope-qualified
// blob that gets HMAC'd to produce the request signature.
func (signatureCalculator) stringToSign(canonicalRequest string, cfg SigningConfig) string {
	return strings.Join([]string{
		algorithmName,
		cfg.amzDate(),
		cfg.CredentialScope(),
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")
}

// chunkStringToSign builds the string-to-sign for one streaming
// chunk. The constant fifth line (sha256("")) is the sentinel AWS's
// streaming format requires in place of a canonical-headers hash.
func (signatureCalculator) chunkStringToSign(chunkBody []byte, prevSignatureHex string, cfg SigningConfig) string {
	return strings.Join([]string{
		chunkAlgorithmName,
		cfg.amzDate(),
		cfg.CredentialScope(),
		prevSignatureHex,
		emptyStringSHA256Hex,
		sha256Hex(chunkBody),
	}, "\n")
}

// trailerStringToSign builds the string-to-sign for a streaming
// trailer block, given its already-canonicalized header text.
func (signatureCalculator) trailerStringToSign(trailingHeadersCanonical string, prevSignatureHex string, cfg SigningConfig) string {
	return strings.Join([]string{
		trailerAlgorithmName,
		cfg.amzDate(),
		cfg.CredentialScope(),
		prevSignatureHex,
		sha256Hex([]byte(trailingHeadersCanonical)),
	}, "\n")
}

// signingKey derives kSigning from the secret key and scope, per the
// standard AWS4 HMAC chain. The returned slice is the caller's
// responsibility to zeroize once it is done signing.
func (signatureCalculator) signingKey(cfg SigningConfig, creds Credentials) []byte {
	kDate := hmacSHA256([]byte("AWS4"+creds.SecretAccessKey), []byte(cfg.scopeDate()))
	kRegion := hmacSHA256(kDate, []byte(cfg.Region))
	kService := hmacSHA256(kRegion, []byte(cfg.Service))
	kSigning := hmacSHA256(kService, []byte(terminationString))
	zeroize(kDate)
	zeroize(kRegion)
	zeroize(kService)
	return kSigning
}

// calculate computes the lowercase-hex HMAC-SHA256 of stringToSign
// under signingKey.
func (signatureCalculator) calculate(signingKey []byte, stringToSign string) string {
	return hmacSHA256Hex(signingKey, []byte(stringToSign))
}
