package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Issuer firma bearer tokens EdDSA con una sola clave de proceso.
// La clave se resuelve una vez al arranque (seed de config o efímera en dev);
// no hay estado global perezoso.
type Issuer struct {
	Iss       string
	AccessTTL time.Duration // TTL por defecto (1h)

	kid  string
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

var (
	ErrNoToken      = errors.New("jwt: empty token")
	ErrInvalidToken = errors.New("jwt: invalid token")
)

// NewIssuer crea el issuer. seedB64 es la seed ed25519 (32 bytes, base64
// estándar); si está vacía se genera una clave efímera (solo dev: los tokens
// mueren con el proceso).
func NewIssuer(iss, seedB64 string) (*Issuer, error) {
	var priv ed25519.PrivateKey
	if seedB64 == "" {
		_, p, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("jwt: generate key: %w", err)
		}
		priv = p
	} else {
		seed, err := base64.StdEncoding.DecodeString(seedB64)
		if err != nil {
			return nil, fmt.Errorf("jwt: decode seed: %w", err)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("jwt: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
		}
		priv = ed25519.NewKeyFromSeed(seed)
	}

	pub := priv.Public().(ed25519.PublicKey)
	sum := sha256.Sum256(pub)
	return &Issuer{
		Iss:       iss,
		AccessTTL: time.Hour,
		kid:       base64.RawURLEncoding.EncodeToString(sum[:8]),
		priv:      priv,
		pub:       pub,
	}, nil
}

// ActiveKID devuelve el KID de la clave activa.
func (i *Issuer) ActiveKID() string { return i.kid }

// IssueAccess emite un access token con user_id, email y role.
// ttl == 0 usa AccessTTL (1h por defecto).
func (i *Issuer) IssueAccess(accountID int64, email, role string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = i.AccessTTL
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)

	claims := jwtv5.MapClaims{
		"iss":     i.Iss,
		"sub":     fmt.Sprintf("%d", accountID),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
		"exp":     exp.Unix(),
		"user_id": accountID,
		"email":   email,
		"role":    role,
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.kid
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.priv)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Keyfunc devuelve un jwt.Keyfunc que valida contra la clave del proceso.
func (i *Issuer) Keyfunc() jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("jwt: unexpected signing method %q", t.Method.Alg())
		}
		return i.pub, nil
	}
}

// Parse valida firma y expiración, y retorna las claims.
func (i *Issuer) Parse(raw string) (jwtv5.MapClaims, error) {
	if raw == "" {
		return nil, ErrNoToken
	}
	tk, err := jwtv5.Parse(raw, i.Keyfunc(),
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithIssuer(i.Iss),
	)
	if err != nil || !tk.Valid {
		return nil, ErrInvalidToken
	}
	mc, ok := tk.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return mc, nil
}
