package auth

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens against a shared HMAC secret.
// The secret comes from configuration, never from a package variable,
// so each process (and each test) owns its own instance.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates the signature and expiration of a JWT string.
func (v *Verifier) Verify(tokenString string) (contract.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return contract.TokenClaims{}, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return contract.TokenClaims{}, errors.ErrInvalidToken
	}

	out := contract.TokenClaims{Subject: claims.UserID}
	if claims.ExpiresAt != nil {
		out.Expiry = claims.ExpiresAt.Time
	}
	return out, nil
}

// GenerateToken creates a signed JWT for a specific user. Issuance itself is
// the auth collaborator's job; this lives here for the seed tool and tests.
func GenerateToken(userID, secret string, duration time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "chat-relay",
		},
	}

	// HS256: HMAC with SHA256, matching what Verifier expects.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
