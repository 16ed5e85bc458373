package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Hex devuelve sha256(input) en hexadecimal.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", sum)
}

// tempPasswordAlphabet evita caracteres ambiguos (sin I, O, 0, 1, l).
const tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// GenerateTempPassword genera un password temporal legible para cuentas
// creadas por un administrador (se envía por email; la cuenta queda con
// must_change_password=true hasta que el titular lo reemplace).
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		length = 12
	}
	out := make([]byte, length)
	buf := make([]byte, 1)
	for i := 0; i < length; i++ {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		out[i] = tempPasswordAlphabet[int(buf[0])%len(tempPasswordAlphabet)]
	}
	return string(out), nil
}
