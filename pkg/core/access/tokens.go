package access

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload carried by schedule API tokens
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
	Tier int    `json:"tier"`
}

// IssueToken signs an HS256 token for identity valid for ttl
func IssueToken(secret string, identity Identity, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	if identity.UserID == "" {
		return "", errors.New("user id required")
	}
	if !identity.Tier.IsValid() {
		return "", fmt.Errorf("invalid tier %d", identity.Tier)
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: identity.Name,
		Tier: int(identity.Tier),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks the signature and expiry of token and returns its identity
func VerifyToken(token, secret string) (Identity, error) {
	if secret == "" {
		return Identity{}, errors.New("jwt secret not configured")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("failed to verify token: %w", err)
	}
	if !parsed.Valid {
		return Identity{}, errors.New("invalid token")
	}

	return identityFromClaims(claims)
}

// IdentityFromToken reads the identity from a token without verifying it.
// The client uses it to gate actions before dispatch; the service re-checks
// every request against the verified token.
func IdentityFromToken(token string) (Identity, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}
	return identityFromClaims(claims)
}

func identityFromClaims(claims *Claims) (Identity, error) {
	if claims.Subject == "" {
		return Identity{}, errors.New("subject claim required")
	}
	tier := Tier(claims.Tier)
	if !tier.IsValid() {
		return Identity{}, fmt.Errorf("invalid tier claim %d", claims.Tier)
	}
	return Identity{
		UserID: claims.Subject,
		Name:   claims.Name,
		Tier:   tier,
	}, nil
}
