package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v4"

	"github.com/taskloop/backend/domain"
)

// TokenClaims carries the session reference inside the bearer token.
type TokenClaims struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenSigner issues and parses the HS256 bearer tokens handed to clients.
// The token only references the session; revoking the session invalidates
// the token no matter how long it remains within its expiry window.
type TokenSigner struct {
	secret []byte
	issuer string
}

// NewTokenSigner builds a signer using the shared secret.
func NewTokenSigner(secret, issuer string) *TokenSigner {
	return &TokenSigner{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Sign issues a token for the session, expiring with it.
func (s *TokenSigner) Sign(session *domain.Session) (string, error) {
	if session == nil {
		return "", domain.ErrInvalidPayload
	}
	claims := TokenClaims{
		SessionID: session.ID,
		UserID:    session.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates the token signature and expiry and returns its claims.
func (s *TokenSigner) Parse(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.SessionID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}
