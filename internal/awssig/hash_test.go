package awssig

import (
	"strings"
	"testing"
)

func TestSha256HexEmptyMatchesSentinel(t *testing.T) {
	if got := sha256Hex(nil); got != emptyStringSHA256Hex {
		t.Fatalf("sha256Hex(nil) = %s, want %s", got, emptyStringSHA256Hex)
	}
}

func TestSha256HexReaderMatchesSha256Hex(t *testing.T) {
	data := []byte("the quick brown fox")
	want := sha256Hex(data)

	got, err := sha256HexReader(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("sha256HexReader: %v", err)
	}
	if got != want {
		t.Fatalf("sha256HexReader = %s, want %s", got, want)
	}
}

func TestHmacSHA256HexKnownVector(t *testing.T) {
	// RFC 4231 test case 1.
	key := []byte{
		0x0b, 0x0b, 0x0b, 0x0b, 0x0b, 0x0b, 0x0b, 0x0b,
		0x0b, 0x0b, 0x0b, 0x0b, 0x0b, 0x0b, 0x0b, 0x0b,
		0x0b, 0x0b, 0x0b, 0x0b,
	}
	data := []byte("Hi There")
	want := "b0344c61d8db38535ca8afceaf0bf12b881dc200c9833da726e9376c2e32cff7"

	got := hmacSHA256Hex(key, data)
	if got != want {
		t.Fatalf("hmacSHA256Hex = %s, want %s", got, want)
	}
}

func TestZeroizeOverwritesBuffer(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	zeroize(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not zeroed: %d", i, v)
		}
	}
}
