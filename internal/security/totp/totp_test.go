package totp

import (
	"strings"
	"testing"
	"time"
)

func TestVerify_RoundTrip(t *testing.T) {
	secret, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	now := time.Unix(1_700_000_015, 0) // mitad de una ventana de 30s

	code, err := Code(secret, now)
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if len(code) != Digits {
		t.Fatalf("code %q: want %d digits", code, Digits)
	}
	if !Verify(secret, code, now, 1) {
		t.Fatal("code should verify in its own window")
	}
	// skew de una ventana para cada lado
	if !Verify(secret, code, now.Add(30*time.Second), 1) {
		t.Fatal("code should verify one step late with window 1")
	}
	if !Verify(secret, code, now.Add(-30*time.Second), 1) {
		t.Fatal("code should verify one step early with window 1")
	}
	// fuera de la tolerancia
	if Verify(secret, code, now.Add(90*time.Second), 1) {
		t.Fatal("code should not verify three steps late")
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	a, _ := GenerateSecret()
	b, _ := GenerateSecret()
	now := time.Now()

	code, err := Code(a, now)
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if Verify(b, code, now, 1) {
		t.Fatal("code from secret A must not verify against secret B")
	}
}

func TestVerify_RejectsMalformedCode(t *testing.T) {
	secret, _ := GenerateSecret()
	now := time.Now()
	for _, code := range []string{"", "12345", "1234567", "abc"} {
		if Verify(secret, code, now, 1) {
			t.Fatalf("malformed code %q should not verify", code)
		}
	}
	if Verify("not-base32!", "123456", now, 1) {
		t.Fatal("bad secret should not verify")
	}
}

func TestOTPAuthURL(t *testing.T) {
	uri := OTPAuthURL("VetClinic", "doc@vetclinic.test", "JBSWY3DPEHPK3PXP")
	if !strings.HasPrefix(uri, "otpauth://totp/VetClinic:doc@vetclinic.test?") {
		t.Fatalf("unexpected label in %q", uri)
	}
	for _, frag := range []string{"secret=JBSWY3DPEHPK3PXP", "issuer=VetClinic", "digits=6", "period=30", "algorithm=SHA1"} {
		if !strings.Contains(uri, frag) {
			t.Fatalf("uri %q missing %q", uri, frag)
		}
	}
}
