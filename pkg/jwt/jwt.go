package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/parleyhq/parley/pkg/errcode"
)

// Claims represents the identity provider's token claims. The engine trusts
// SubjectId after signature verification and performs no further
// authentication.
type Claims struct {
	SubjectId string `json:"subject_id"`
	jwt.RegisteredClaims
}

// GenerateToken issues a token for a subject. Used by dev tooling and tests;
// in production tokens come from the external identity provider.
func GenerateToken(subjectId, secret string, expireHours int) (string, error) {
	claims := Claims{
		SubjectId: subjectId,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "parley",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken parses and validates a token
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errcode.ErrTokenExpired
		}
		return nil, errcode.ErrTokenInvalid.Wrap(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errcode.ErrTokenInvalid
	}
	if claims.SubjectId == "" {
		return nil, errcode.ErrNotAuthenticated
	}

	return claims, nil
}
