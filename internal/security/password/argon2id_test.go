package password

import (
	"strings"
	"testing"
)

func TestHashVerify_RoundTrip(t *testing.T) {
	phc, err := Hash(Default, "súper-secreta-42")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$") {
		t.Fatalf("unexpected PHC prefix: %q", phc)
	}
	if !Verify("súper-secreta-42", phc) {
		t.Fatal("correct password should verify")
	}
	if Verify("otra-cosa", phc) {
		t.Fatal("wrong password should not verify")
	}
}

func TestHash_SaltsDiffer(t *testing.T) {
	a, err := Hash(Default, "misma")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Hash(Default, "misma")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ (random salt)")
	}
}

func TestVerify_RejectsGarbage(t *testing.T) {
	for _, phc := range []string{"", "plaintext", "$argon2id$v=19$truncated"} {
		if Verify("x", phc) {
			t.Fatalf("garbage PHC %q should not verify", phc)
		}
	}
}
