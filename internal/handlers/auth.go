package handlers

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"net/http"

	"github.com/btcsuite/btcutil/base58"
	"github.com/labstack/echo/v4"
	"github.com/rakutentech/jwk-go/jwk"
	"github.com/rakutentech/jwk-go/okp"

	"github.com/qwestive/qwestive-api/internal/model"
	"github.com/qwestive/qwestive-api/internal/service/auth"
)

type AuthService interface {
	CheckIn(ctx context.Context, userID model.UserID) (*auth.CheckInResult, error)
	SignIn(ctx context.Context, userID model.UserID, message, signature, publicKey []byte) (*auth.SignInResult, error)
}

type checkInRequest struct {
	UID string `json:"uid"`
}

func CheckIn(authService AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &checkInRequest{}
		if err := c.Bind(params); err != nil {
			return fmt.Errorf("binding check-in request: %w", model.ErrorInvalidArgument)
		}
		result, err := authService.CheckIn(c.Request().Context(), model.UserID(params.UID))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}
}

type signInRequest struct {
	UID       string `json:"uid"`
	Message   []byte `json:"message"`
	Signature []byte `json:"signature"`
	PublicKey []byte `json:"publicKey"`
}

func SignIn(authService AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &signInRequest{}
		if err := c.Bind(params); err != nil {
			return fmt.Errorf("binding sign-in request: %w", model.ErrorInvalidArgument)
		}
		result, err := authService.SignIn(c.Request().Context(),
			model.UserID(params.UID), params.Message, params.Signature, params.PublicKey)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}
}

// PublicKey serves the wallet's ed25519 public key as a JWK. The address is
// the key, so this is a pure re-encoding.
func PublicKey() echo.HandlerFunc {
	return func(c echo.Context) error {
		address := c.Param("id")
		raw := base58.Decode(address)
		if len(raw) != ed25519.PublicKeySize {
			return fmt.Errorf("wallet id %q is not a base58 public key: %w", address, model.ErrorInvalidArgument)
		}

		keySpec := jwk.NewSpec(okp.NewEd25519(raw, nil))
		rawJWK, err := keySpec.ToJWK()
		if err != nil {
			return fmt.Errorf("encoding public key for %s: %w", address, err)
		}
		rawJWK.Use = "sig"
		rawJWK.Alg = "EdDSA"
		rawJWK.Kid = address

		data, err := rawJWK.MarshalJSON()
		if err != nil {
			return fmt.Errorf("marshalling JWK for %s: %w", address, err)
		}
		return c.JSONBlob(http.StatusOK, data)
	}
}
