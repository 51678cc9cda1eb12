package utils

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/crosspost/internal/transfer"
)

const stateIssuer = "crosspost"

// GenerateStateToken signs the OAuth state for platform so the callback can
// check it came from the same browser.
func GenerateStateToken(secretKey, platform, state string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := transfer.StateClaims{
		State:    state,
		Platform: platform,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    stateIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return signed, nil
}

func ValidateStateToken(secretKey, tokenString string) (*transfer.StateClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &transfer.StateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secretKey), nil
	}, jwt.WithIssuer(stateIssuer))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if claims, ok := token.Claims.(*transfer.StateClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
