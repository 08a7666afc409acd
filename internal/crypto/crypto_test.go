package crypto

import (
	"bytes"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	key, err := DeriveKeyFromPassphraseWithSalt("correct horse battery staple", make([]byte, saltLen))
	if err != nil {
		t.Fatalf("derive key: %v", err)
	}

	plaintext := []byte(`{"title":"buy milk"}`)
	ct, err := Encrypt(key, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(ct, plaintext) {
		t.Fatal("ciphertext must not equal plaintext")
	}

	got, err := Decrypt(key, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round-trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	key1, _ := DeriveKeyFromPassphraseWithSalt("one", make([]byte, saltLen))
	key2, _ := DeriveKeyFromPassphraseWithSalt("two", make([]byte, saltLen))

	ct, err := Encrypt(key1, []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := Decrypt(key2, ct); err == nil {
		t.Fatal("expected error decrypting with wrong key")
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	key, _ := DeriveKeyFromPassphraseWithSalt("p", make([]byte, saltLen))
	ct, err := Encrypt(key, []byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	ct[len(ct)-1] ^= 0xFF
	if _, err := Decrypt(key, ct); err == nil {
		t.Fatal("expected tampered ciphertext to fail authentication")
	}
}

func TestDeriveKeyFromPassphraseWithSalt(t *testing.T) {
	salt := bytes.Repeat([]byte{0x42}, saltLen)

	key1, err := DeriveKeyFromPassphraseWithSalt("correct horse battery staple", salt)
	if err != nil {
		t.Fatalf("derive 1: %v", err)
	}
	if len(key1) != keyLen {
		t.Fatalf("key length: got %d, want %d", len(key1), keyLen)
	}

	key2, err := DeriveKeyFromPassphraseWithSalt("correct horse battery staple", salt)
	if err != nil {
		t.Fatalf("derive 2: %v", err)
	}
	if !bytes.Equal(key1, key2) {
		t.Fatal("same passphrase and salt must derive the same key")
	}
}

func TestDeriveKeyFromPassphraseWithSalt_DifferentPassphrase(t *testing.T) {
	salt := bytes.Repeat([]byte{0x7a}, saltLen)

	key1, err := DeriveKeyFromPassphraseWithSalt("passphrase-one", salt)
	if err != nil {
		t.Fatalf("derive 1: %v", err)
	}
	key2, err := DeriveKeyFromPassphraseWithSalt("passphrase-two", salt)
	if err != nil {
		t.Fatalf("derive 2: %v", err)
	}
	if bytes.Equal(key1, key2) {
		t.Fatal("different passphrases should produce different keys")
	}
}

func TestDeriveKeyFromPassphraseWithSalt_RejectsWrongSaltLength(t *testing.T) {
	if _, err := DeriveKeyFromPassphraseWithSalt("p", []byte("short")); err == nil {
		t.Fatal("expected an error for a short salt")
	}
}
