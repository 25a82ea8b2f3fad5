// Package auth verifies the HS256 bearer tokens presented by adjusters,
// managers and finance staff.
package auth

import (
	"errors"
	"time"

	"github.com/claimswift/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// clockSkew is tolerated on exp and nbf between the issuer and this service.
const clockSkew = 30 * time.Second

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrMissingUserID = errors.New("token carries no user id")
)

// Claims is the caller identity carried by a token. UserID falls back to
// the registered subject when the issuer does not set user_id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

// JWTService signs and verifies tokens with one shared secret.
type JWTService struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

func NewJWTService(cfg config.AuthConfig) *JWTService {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &JWTService{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		parser: jwt.NewParser(opts...),
	}
}

// GenerateToken mints a token for userID that expires after ttl. Production
// tokens come from the identity provider; this serves tooling and tests.
func (s *JWTService) GenerateToken(userID, role string, ttl time.Duration) (string, error) {
	issued := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
		UserID: userID,
		Role:   role,
	}).SignedString(s.secret)
}

// ValidateToken verifies signature, algorithm, issuer and lifetime. Every
// failure other than expiry is reported as ErrInvalidToken.
func (s *JWTService) ValidateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}
