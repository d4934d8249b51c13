package jwtutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/goguixter/leads-backend/pkg/config"
)

var cfg config.JWTConfig

// Initialize sets the signing configuration for token generation.
func Initialize(jwtConfig config.JWTConfig) {
	cfg = jwtConfig
}

// UserClaims carries the authenticated principal: user id, role and the
// bound partner for PARTNER users (nil for MASTER).
type UserClaims struct {
	UserID    string  `json:"id"`
	Role      string  `json:"role"`
	PartnerID *string `json:"partner_id,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a short-lived access token.
func GenerateAccessToken(userID, role string, partnerID *string) (string, error) {
	return generate(userID, role, partnerID, cfg.AccessSecret, cfg.AccessTTL)
}

// GenerateRefreshToken creates a long-lived refresh token signed with the
// refresh secret.
func GenerateRefreshToken(userID, role string, partnerID *string) (string, error) {
	return generate(userID, role, partnerID, cfg.RefreshSecret, cfg.RefreshTTL)
}

func generate(userID, role string, partnerID *string, secret string, ttl time.Duration) (string, error) {
	claims := UserClaims{
		UserID:    userID,
		Role:      role,
		PartnerID: partnerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken validates and parses an access token.
func ValidateAccessToken(tokenString string) (*UserClaims, error) {
	return validate(tokenString, cfg.AccessSecret)
}

// ValidateRefreshToken validates and parses a refresh token.
func ValidateRefreshToken(tokenString string) (*UserClaims, error) {
	return validate(tokenString, cfg.RefreshSecret)
}

func validate(tokenString, secret string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
