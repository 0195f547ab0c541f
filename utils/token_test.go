package utils

import "testing"

func TestJwtRoundTrip(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	t.Setenv("TOKEN_HOUR_LIFESPAN", "2")

	token, err := JwtGenerate("3f0c7a52-7f7e-4d53-9a4e-1c9a0f8f2d11", "admin@ledger.com", "admin")
	if err != nil {
		t.Fatalf("JwtGenerate error: %v", err)
	}
	claims, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("JwtValidate error: %v", err)
	}
	if claims.ID != "3f0c7a52-7f7e-4d53-9a4e-1c9a0f8f2d11" || claims.Email != "admin@ledger.com" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if TokenExpiry(claims) <= 0 {
		t.Fatalf("expected positive expiry")
	}

	t.Setenv("API_SECRET", "another-secret")
	if _, err := JwtValidate(token); err == nil {
		t.Fatalf("expected token signed with a different secret to be rejected")
	}
}

func TestPasswordHash(t *testing.T) {
	hashed, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hashed == "secret123" {
		t.Fatalf("expected hashed password")
	}
	if err := ComparePassword(hashed, "secret123"); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}
	if err := ComparePassword(hashed, "wrong"); err == nil {
		t.Fatalf("expected mismatch")
	}
}
