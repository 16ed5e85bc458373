package jwt

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func TestIssueAccess_ParseRoundTrip(t *testing.T) {
	iss, err := NewIssuer("vetclinic", "")
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	token, exp, err := iss.IssueAccess(42, "doc@vetclinic.test", "lekarz", time.Hour)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if time.Until(exp) < 55*time.Minute {
		t.Fatalf("exp too close: %v", exp)
	}

	claims, err := iss.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := claims["user_id"].(float64); got != 42 {
		t.Fatalf("user_id = %v, want 42", got)
	}
	if claims["email"] != "doc@vetclinic.test" {
		t.Fatalf("email = %v", claims["email"])
	}
	if claims["role"] != "lekarz" {
		t.Fatalf("role = %v", claims["role"])
	}
	if claims["iss"] != "vetclinic" {
		t.Fatalf("iss = %v", claims["iss"])
	}
}

func TestParse_RejectsForeignKey(t *testing.T) {
	a, _ := NewIssuer("vetclinic", "")
	b, _ := NewIssuer("vetclinic", "")

	token, _, err := a.IssueAccess(1, "x@y.z", "klient", 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestParse_EmptyAndGarbage(t *testing.T) {
	iss, _ := NewIssuer("vetclinic", "")
	if _, err := iss.Parse(""); !errors.Is(err, ErrNoToken) {
		t.Fatalf("want ErrNoToken, got %v", err)
	}
	if _, err := iss.Parse("no.es.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestNewIssuer_SeedIsDeterministic(t *testing.T) {
	seed := base64.StdEncoding.EncodeToString(make([]byte, 32))
	a, err := NewIssuer("vetclinic", seed)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewIssuer("vetclinic", seed)
	if err != nil {
		t.Fatal(err)
	}
	// Misma seed, misma clave: lo que firma uno lo valida el otro.
	token, _, err := a.IssueAccess(7, "a@b.c", "konsultant", 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Parse(token); err != nil {
		t.Fatalf("cross-parse with same seed: %v", err)
	}
	if a.ActiveKID() != b.ActiveKID() {
		t.Fatal("same seed must yield same KID")
	}
}

func TestNewIssuer_RejectsBadSeed(t *testing.T) {
	if _, err := NewIssuer("vetclinic", "!!!not-base64!!!"); err == nil {
		t.Fatal("want error for bad base64")
	}
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := NewIssuer("vetclinic", short); err == nil {
		t.Fatal("want error for short seed")
	}
}
