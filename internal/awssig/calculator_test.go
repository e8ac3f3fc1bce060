package awssig

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"
)

// TestSigningKeyMatchesPublishedExample reproduces AWS's published
// worked example for deriving a signing key: secret
// wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY, date 20150830,
// region us-east-1, service iam.
func TestSigningKeyMatchesPublishedExample(t *testing.T) {
	signingTime, err := time.Parse(dateFormat, "20150830")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	cfg := NewSigningConfig("us-east-1", "iam", signingTime)
	creds := Credentials{SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY"}

	var calc signatureCalculator
	key := calc.signingKey(cfg, creds)

	want := "c4afb1cc5771d871763a393e44b703571b55cc28424d1a5e86da6ed3c154a4b"
	got := hex.EncodeToString(key)
	if got != want {
		t.Fatalf("signingKey = %s, want %s", got, want)
	}
}

func TestStringToSignStructure(t *testing.T) {
	cfg := vanillaConfig()
	var calc signatureCalculator
	sts := calc.stringToSign("canonical-request-body", cfg)

	lines := strings.Split(sts, "\n")
	if len(lines) != 4 {
		t.Fatalf("string-to-sign has %d lines, want 4", len(lines))
	}
	if lines[0] != algorithmName {
		t.Fatalf("line 0 = %q, want %q", lines[0], algorithmName)
	}
	if lines[1] != "20150830T123600Z" {
		t.Fatalf("line 1 = %q, want amz-date", lines[1])
	}
	if lines[2] != "20150830/us-east-1/service/aws4_request" {
		t.Fatalf("line 2 = %q, want credential scope", lines[2])
	}
	if len(lines[3]) != 64 {
		t.Fatalf("line 3 hash length = %d, want 64", len(lines[3]))
	}
}

func TestChunkStringToSignHasConstantFifthLine(t *testing.T) {
	cfg := vanillaConfig()
	var calc signatureCalculator
	sts := calc.chunkStringToSign([]byte("hello"), strings.Repeat("a", 64), cfg)

	lines := strings.Split(sts, "\n")
	if len(lines) != 6 {
		t.Fatalf("chunk string-to-sign has %d lines, want 6", len(lines))
	}
	if lines[0] != chunkAlgorithmName {
		t.Fatalf("line 0 = %q, want %q", lines[0], chunkAlgorithmName)
	}
	if lines[4] != emptyStringSHA256Hex {
		t.Fatalf("line 4 = %q, want the empty-string sentinel", lines[4])
	}
	if lines[5] != sha256Hex([]byte("hello")) {
		t.Fatalf("line 5 = %q, want sha256(chunk)", lines[5])
	}
}

func TestCalculateMatchesHmacSHA256Hex(t *testing.T) {
	var calc signatureCalculator
	key := []byte("a-signing-key")
	sts := "a-string-to-sign"

	if got, want := calc.calculate(key, sts), hmacSHA256Hex(key, []byte(sts)); got != want {
		t.Fatalf("calculate = %s, want %s", got, want)
	}
}
