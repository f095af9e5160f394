// Package session mints and verifies the bearer credentials handed out after
// a successful wallet sign-in.
package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/qwestive/qwestive-api/internal/model"
)

type Issuer struct {
	secret   []byte
	validity time.Duration
}

func NewIssuer(secret []byte, validity time.Duration) *Issuer {
	return &Issuer{secret: secret, validity: validity}
}

// Issue creates a signed token bound to the wallet id.
func (i *Issuer) Issue(userID model.UserID) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": string(userID),
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(i.validity).Unix(),
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the wallet id the token
// was issued for.
func (i *Issuer) Verify(tokenString string) (model.UserID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parsing session token: %w", model.ErrorUnauthenticated)
	}
	if !token.Valid {
		return "", model.ErrorUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", model.ErrorUnauthenticated
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", model.ErrorUnauthenticated
	}

	return model.UserID(sub), nil
}
