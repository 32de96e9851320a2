package auth

import (
	"testing"
	"time"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("operator-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "operator-secret") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("wrong password accepted")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := SignJWT("operator", "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	subject, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if subject != "operator" {
		t.Fatalf("subject %q", subject)
	}

	if _, err := ParseJWT(token, "other-secret"); err == nil {
		t.Fatalf("token accepted with wrong secret")
	}
}

func TestJWTExpiry(t *testing.T) {
	token, err := SignJWT("operator", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(token, "secret"); err == nil {
		t.Fatalf("expired token accepted")
	}
}
