package auth

import (
	"testing"
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
)

func TestHashAndCheckPassword(t *testing.T) {
	// Minimum bcrypt cost keeps the tests fast.
	hash, err := HashPassword("secret123", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "secret123" {
		t.Fatal("HashPassword() returned the plaintext")
	}

	if !CheckPassword(hash, "secret123") {
		t.Error("CheckPassword() rejected the correct password")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("CheckPassword() accepted a wrong password")
	}
	if CheckPassword("not-a-hash", "secret123") {
		t.Error("CheckPassword() accepted a garbage hash")
	}
}

func TestMintAndParseToken(t *testing.T) {
	u := &ledger.User{ID: 42, Email: "jwt@example.com", Rank: ledger.RankAdmin}

	token, err := MintToken(u, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}

	claims, err := ParseClaims(token, "test-secret")
	if err != nil {
		t.Fatalf("ParseClaims() error = %v", err)
	}
	if claims.UserID != 42 || claims.Email != "jwt@example.com" || claims.Rank != ledger.RankAdmin {
		t.Errorf("ParseClaims() = %+v", claims)
	}
}

func TestParseClaims_WrongSecret(t *testing.T) {
	u := &ledger.User{ID: 1, Email: "jwt@example.com", Rank: ledger.RankFree}
	token, _ := MintToken(u, "test-secret", time.Hour)

	if _, err := ParseClaims(token, "other-secret"); err == nil {
		t.Error("ParseClaims() accepted a token signed with a different secret")
	}
}

func TestParseClaims_Expired(t *testing.T) {
	u := &ledger.User{ID: 1, Email: "jwt@example.com", Rank: ledger.RankFree}
	token, _ := MintToken(u, "test-secret", -time.Minute)

	if _, err := ParseClaims(token, "test-secret"); err == nil {
		t.Error("ParseClaims() accepted an expired token")
	}
}
