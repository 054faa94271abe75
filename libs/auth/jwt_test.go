package auth

import (
	"testing"
	"time"
)

func TestSignAndVerifyHS256(t *testing.T) {
	claims := Claims{
		Sub:        "staff-7",
		BusinessID: 42,
		Role:       "owner",
		Exp:        time.Now().Add(time.Hour).Unix(),
		Iat:        time.Now().Unix(),
	}

	token, err := SignHS256(claims, "test-secret")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}

	got, err := VerifyHS256(token, "test-secret")
	if err != nil {
		t.Fatalf("VerifyHS256 failed: %v", err)
	}
	if got.BusinessID != 42 || got.Role != "owner" || got.Sub != "staff-7" {
		t.Fatalf("unexpected claims: %+v", got)
	}
}

func TestVerifyHS256_WrongSecret(t *testing.T) {
	token, err := SignHS256(Claims{BusinessID: 1, Exp: time.Now().Add(time.Hour).Unix()}, "secret-a")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := VerifyHS256(token, "secret-b"); err == nil {
		t.Fatal("expected verification to fail with wrong secret")
	}
}

func TestVerifyHS256_Expired(t *testing.T) {
	token, err := SignHS256(Claims{BusinessID: 1, Exp: time.Now().Add(-time.Minute).Unix()}, "secret")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := VerifyHS256(token, "secret"); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
