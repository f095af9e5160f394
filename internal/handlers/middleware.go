package handlers

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qwestive/qwestive-api/internal/model"
)

const userIDContextKey = "qwestive.userID"

type SessionVerifier interface {
	Verify(tokenString string) (model.UserID, error)
}

// Session authenticates the bearer token and attaches the wallet id to the
// request context. Downstream handlers read it with CurrentUser and pass it
// into the services explicitly.
func Session(verifier SessionVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				return fmt.Errorf("missing bearer token: %w", model.ErrorUnauthenticated)
			}

			userID, err := verifier.Verify(strings.TrimPrefix(header, prefix))
			if err != nil {
				return err
			}

			c.Set(userIDContextKey, userID)
			return next(c)
		}
	}
}

func CurrentUser(c echo.Context) (model.UserID, error) {
	userID, ok := c.Get(userIDContextKey).(model.UserID)
	if !ok || userID == "" {
		return "", fmt.Errorf("no authenticated user on request: %w", model.ErrorUnauthenticated)
	}
	return userID, nil
}
