package vault

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestEncryptDecryptRoundtrip(t *testing.T) {
	v := New(testKeyHex, testLogger())

	secrets := []string{
		"access-sandbox-00000000-0000-0000-0000-000000000000",
		"x",
		"exactly sixteen!",
		strings.Repeat("long secret ", 50),
	}
	for _, secret := range secrets {
		encrypted, err := v.Encrypt(secret)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", secret, err)
		}
		if encrypted == secret {
			t.Errorf("ciphertext equals plaintext for %q", secret)
		}
		decrypted, err := v.Decrypt(encrypted)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if decrypted != secret {
			t.Errorf("roundtrip mismatch: got %q, want %q", decrypted, secret)
		}
	}
}

func TestEncryptEmptyIsEmpty(t *testing.T) {
	v := New(testKeyHex, testLogger())
	encrypted, err := v.Encrypt("")
	if err != nil || encrypted != "" {
		t.Fatalf("Encrypt(\"\") = %q, %v", encrypted, err)
	}
	decrypted, err := v.Decrypt("")
	if err != nil || decrypted != "" {
		t.Fatalf("Decrypt(\"\") = %q, %v", decrypted, err)
	}
}

func TestEncryptIsRandomized(t *testing.T) {
	v := New(testKeyHex, testLogger())
	a, err := v.Encrypt("same secret")
	if err != nil {
		t.Fatal(err)
	}
	b, err := v.Encrypt("same secret")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two encryptions of the same secret produced identical ciphertext")
	}
}

func TestInvalidKeyFallsBackToEphemeral(t *testing.T) {
	for _, key := range []string{"", "not hex", "abcd"} {
		v := New(key, testLogger())
		encrypted, err := v.Encrypt("secret")
		if err != nil {
			t.Fatalf("Encrypt with fallback key (%q): %v", key, err)
		}
		decrypted, err := v.Decrypt(encrypted)
		if err != nil || decrypted != "secret" {
			t.Fatalf("fallback roundtrip (%q): %q, %v", key, decrypted, err)
		}
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	v := New(testKeyHex, testLogger())
	for _, input := range []string{"zz", "abcd", "00112233445566778899aabbccddeeff00"} {
		if _, err := v.Decrypt(input); err == nil {
			t.Errorf("Decrypt(%q) succeeded, want error", input)
		}
	}
}
