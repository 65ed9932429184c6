package content

import (
	"errors"
	"testing"
)

func TestDecodeRoundTrip(t *testing.T) {
	raw, err := Encode(1, 5, "  hello from the chain  ")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Version != 1 {
		t.Fatalf("expected version 1, got %d", decoded.Version)
	}
	if decoded.ServiceCode != 5 {
		t.Fatalf("expected service code 5, got %d", decoded.ServiceCode)
	}
	if decoded.Text != "hello from the chain" {
		t.Fatalf("expected trimmed text, got %q", decoded.Text)
	}
}

func TestDecodeEncoded(t *testing.T) {
	raw, err := Encode(1, 0, "secret")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	raw[1] |= flagEncoded
	if _, err := Decode(raw); !errors.Is(err, ErrEncoded) {
		t.Fatalf("expected ErrEncoded, got %v", err)
	}
}

func TestDecodeTooShort(t *testing.T) {
	if _, err := Decode([]byte{1, 0, 0}); err == nil {
		t.Fatal("expected error for short container")
	}
}

func TestDecodeGarbageBlob(t *testing.T) {
	raw := []byte{1, 0, 0, 0, 0, 0, 0xde, 0xad, 0xbe, 0xef}
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected error for non-zlib blob")
	}
}
