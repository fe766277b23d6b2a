package utils

import (
	"errors" // Claim validation errors
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// TokenTTL is how long a session token stays valid
const TokenTTL = 24 * time.Hour

// Claims carries the session owner
type Claims struct {
	UserID               string `json:"user_id"` // Owning user id
	Address              string `json:"address"` // Canonical address the session was opened with
	jwt.RegisteredClaims                         // Standard JWT claims
}

// GenerateJWT creates a session token for a user and the address they connected with
func GenerateJWT(userID, address, secret string) (string, error) {
	now := time.Now() // Issue time
	claims := Claims{
		UserID:  userID,  // Session owner
		Address: address, // Connected address
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,                                // Subject mirrors the user id
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)), // Token expiry
			IssuedAt:  jwt.NewNumericDate(now),               // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a JWT token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})) // Only accept HS256
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid // Token is invalid
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user id") // Missing owner
	}
	return claims, nil // Return claims if valid
}
