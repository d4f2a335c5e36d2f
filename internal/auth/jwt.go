package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrTokenInvalid = errors.New("identity token is invalid")
	ErrTokenExpired = errors.New("identity token has expired")
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier turns a signed bearer token into an Identity. Credential
// issuance lives in a separate service; this side only checks the
// signature and reads {sub, role}.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(token string) (Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}
	if !parsed.Valid || c.Subject == "" {
		return Identity{}, ErrTokenInvalid
	}

	role, err := ParseRole(c.Role)
	if err != nil {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{Subject: c.Subject, Role: role}, nil
}

// Sign issues a token for the given identity. Used by the seed tool and
// tests; production tokens come from the auth service.
func (v *Verifier) Sign(ident Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Role: string(ident.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}
