package secrets

import "testing"

func TestBoxRoundTrip(t *testing.T) {
	box, err := NewBox("unit-test-master-secret")
	if err != nil {
		t.Fatalf("NewBox failed: %v", err)
	}

	creds := map[string]string{
		"access_token":  "sq0atp-abc123",
		"refresh_token": "sq0rtp-def456",
		"merchant_id":   "M7",
	}

	sealed, err := box.Encrypt(creds)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if sealed == "" {
		t.Fatal("expected non-empty ciphertext")
	}

	opened, err := box.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	for k, v := range creds {
		if opened[k] != v {
			t.Fatalf("key %q: got %q want %q", k, opened[k], v)
		}
	}
}

func TestBoxRejectsTamperedCiphertext(t *testing.T) {
	box, err := NewBox("unit-test-master-secret")
	if err != nil {
		t.Fatalf("NewBox failed: %v", err)
	}
	sealed, err := box.Encrypt(map[string]string{"access_token": "tok"})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	tampered := []byte(sealed)
	tampered[len(tampered)-5] ^= 1
	if _, err := box.Decrypt(string(tampered)); err == nil {
		t.Fatal("expected tampered ciphertext to be rejected")
	}
}

func TestBoxWrongKey(t *testing.T) {
	a, _ := NewBox("secret-a")
	b, _ := NewBox("secret-b")
	sealed, err := a.Encrypt(map[string]string{"access_token": "tok"})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := b.Decrypt(sealed); err == nil {
		t.Fatal("expected decryption with wrong key to fail")
	}
}
