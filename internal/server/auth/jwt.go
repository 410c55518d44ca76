// Package auth issues and checks the HS256 access tokens handed out at login.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the registered claims plus the id of the authenticated user.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
}

func GenerateToken(userID int64, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken returns common.ErrTokenExpired for a well-signed token
// past its expiry and common.ErrInvalidToken for anything else that fails.
func GetUserIDFromToken(tokenString string, secretKey []byte) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, common.ErrTokenExpired
		}
		return 0, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == 0 {
		return 0, common.ErrInvalidToken
	}

	return claims.UserID, nil
}
