package secrets

import (
	"strings"
	"testing"
)

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := c.Seal("tok_secret_value")
	if err != nil {
		t.Fatal(err)
	}
	if sealed == "tok_secret_value" {
		t.Fatal("expected ciphertext to differ from plaintext")
	}

	plain, err := c.Open(sealed)
	if err != nil {
		t.Fatal(err)
	}
	if plain != "tok_secret_value" {
		t.Fatalf("round trip mismatch: %q", plain)
	}
}

func TestCipherEmptyValue(t *testing.T) {
	c, err := NewCipher(strings.Repeat("cd", 32))
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := c.Seal("")
	if err != nil {
		t.Fatal(err)
	}
	if sealed != "" {
		t.Fatalf("empty plaintext must stay empty, got %q", sealed)
	}
}

func TestCipherPassthroughWithoutKey(t *testing.T) {
	c, err := NewCipher("")
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := c.Seal("plain")
	if err != nil {
		t.Fatal(err)
	}
	if sealed != "plain" {
		t.Fatalf("expected passthrough, got %q", sealed)
	}
}

func TestCipherBadKey(t *testing.T) {
	if _, err := NewCipher("zz"); err == nil {
		t.Fatal("expected error for non-hex key")
	}
	if _, err := NewCipher("abcd"); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestCipherTamper(t *testing.T) {
	c, _ := NewCipher(strings.Repeat("ef", 32))
	sealed, _ := c.Seal("value")

	if _, err := c.Open(sealed[:len(sealed)-4] + "AAAA"); err == nil {
		t.Fatal("expected error for tampered ciphertext")
	}
}
