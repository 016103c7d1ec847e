package auth

import (
	"strings"
	"testing"

	"github.com/gofrs/uuid"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	key := []byte("super-secret")
	userID := uuid.Must(uuid.NewV4())

	tok, err := GenerateJWT(userID, "cook@example.com", "Cook", key)
	if err != nil {
		t.Fatalf("GenerateJWT error: %v", err)
	}

	claims, err := ParseJWT(tok, key)
	if err != nil {
		t.Fatalf("ParseJWT error: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("user id mismatch: got %q want %q", claims.UserID, userID)
	}
	if claims.Email != "cook@example.com" {
		t.Fatalf("email mismatch: got %q", claims.Email)
	}
	if claims.Name != "Cook" {
		t.Fatalf("name mismatch: got %q", claims.Name)
	}
}

func TestParseJWT_WrongKey(t *testing.T) {
	t.Parallel()

	userID := uuid.Must(uuid.NewV4())

	tok, err := GenerateJWT(userID, "cook@example.com", "Cook", []byte("right-key"))
	if err != nil {
		t.Fatalf("GenerateJWT error: %v", err)
	}

	if _, err := ParseJWT(tok, []byte("wrong-key")); err == nil {
		t.Fatalf("expected error for wrong key, got nil")
	}
}

func TestParseJWT_TamperedPayload(t *testing.T) {
	t.Parallel()

	key := []byte("super-secret")
	userID := uuid.Must(uuid.NewV4())

	tok, err := GenerateJWT(userID, "cook@example.com", "Cook", key)
	if err != nil {
		t.Fatalf("GenerateJWT error: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", tok)
	}

	// flip a character in the payload segment
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := ParseJWT(tampered, key); err == nil {
		t.Fatalf("expected error for tampered payload, got nil")
	}
}

func TestParseJWT_MalformedString(t *testing.T) {
	t.Parallel()

	if _, err := ParseJWT("not.a.jwt", []byte("k")); err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "hunter2" {
		t.Fatalf("hash must not equal the plain password")
	}

	if !CheckPasswordHash(hash, "hunter2") {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPasswordHash(hash, "hunter3") {
		t.Fatalf("expected wrong password to fail verification")
	}
}
