package handlers

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/qwestive/qwestive-api/internal/model"
	"github.com/qwestive/qwestive-api/internal/service/auth"
	"github.com/qwestive/qwestive-api/pkg/session"
)

type fakeAuthService struct {
	checkIn func(ctx context.Context, userID model.UserID) (*auth.CheckInResult, error)
	signIn  func(ctx context.Context, userID model.UserID, message, signature, publicKey []byte) (*auth.SignInResult, error)
}

func (f *fakeAuthService) CheckIn(ctx context.Context, userID model.UserID) (*auth.CheckInResult, error) {
	return f.checkIn(ctx, userID)
}

func (f *fakeAuthService) SignIn(ctx context.Context, userID model.UserID, message, signature, publicKey []byte) (*auth.SignInResult, error) {
	return f.signIn(ctx, userID, message, signature, publicKey)
}

func newContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	server := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return server.NewContext(req, rec), rec
}

func TestErrorHandler(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("bad input: %w", model.ErrorInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("no token: %w", model.ErrorUnauthenticated), http.StatusUnauthorized},
		{fmt.Errorf("stale nonce: %w", model.ErrorInvalidNonce), http.StatusUnauthorized},
		{fmt.Errorf("gated: %w", model.ErrorPermissionDenied), http.StatusForbidden},
		{fmt.Errorf("gone: %w", model.ErrorNotFound), http.StatusNotFound},
		{fmt.Errorf("twice: %w", model.ErrorAlreadyVoted), http.StatusConflict},
		{fmt.Errorf("rpc down: %w", model.ErrorUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("who knows"), http.StatusInternalServerError},
		{echo.NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c, rec := newContext(t, http.MethodGet, "/", "")
			ErrorHandler(tc.err, c)
			assert.Equal(tc.status, rec.Code)

			body := map[string]interface{}{}
			assert.Nil(json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(body, "error")
		})
	}
}

func TestSessionMiddleware(t *testing.T) {
	assert := assert.New(t)
	sessions := session.NewIssuer([]byte("test-secret"), time.Hour)

	handler := Session(sessions)(func(c echo.Context) error {
		userID, err := CurrentUser(c)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, string(userID))
	})

	t.Run("valid token passes the wallet through", func(t *testing.T) {
		token, err := sessions.Issue("wallet-1")
		assert.Nil(err)

		c, rec := newContext(t, http.MethodPost, "/", "")
		c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		assert.Nil(handler(c))
		assert.Equal("wallet-1", rec.Body.String())
	})

	t.Run("missing header is unauthenticated", func(t *testing.T) {
		c, _ := newContext(t, http.MethodPost, "/", "")
		err := handler(c)
		assert.ErrorIs(err, model.ErrorUnauthenticated)
	})

	t.Run("bad token is unauthenticated", func(t *testing.T) {
		c, _ := newContext(t, http.MethodPost, "/", "")
		c.Request().Header.Set(echo.HeaderAuthorization, "Bearer garbage")
		err := handler(c)
		assert.ErrorIs(err, model.ErrorUnauthenticated)
	})
}

func TestCheckInHandler(t *testing.T) {
	assert := assert.New(t)

	service := &fakeAuthService{
		checkIn: func(ctx context.Context, userID model.UserID) (*auth.CheckInResult, error) {
			assert.Equal(model.UserID("wallet-1"), userID)
			return &auth.CheckInResult{Info: auth.InfoSignNonce, Message: "challenge"}, nil
		},
	}

	c, rec := newContext(t, http.MethodPost, "/auth/checkin", `{"uid":"wallet-1"}`)
	assert.Nil(CheckIn(service)(c))
	assert.Equal(http.StatusOK, rec.Code)

	result := &auth.CheckInResult{}
	assert.Nil(json.Unmarshal(rec.Body.Bytes(), result))
	assert.Equal(auth.InfoSignNonce, result.Info)
	assert.Equal("challenge", result.Message)
}

func TestSignInHandler(t *testing.T) {
	assert := assert.New(t)

	service := &fakeAuthService{
		signIn: func(ctx context.Context, userID model.UserID, message, signature, publicKey []byte) (*auth.SignInResult, error) {
			assert.Equal(model.UserID("wallet-1"), userID)
			assert.Equal([]byte("msg"), message)
			assert.Equal([]byte("sig"), signature)
			assert.Equal([]byte("key"), publicKey)
			return &auth.SignInResult{Info: auth.InfoUserAuthenticated, AccessToken: "token"}, nil
		},
	}

	// []byte fields bind from base64 strings.
	body := `{"uid":"wallet-1","message":"bXNn","signature":"c2ln","publicKey":"a2V5"}`
	c, rec := newContext(t, http.MethodPost, "/auth/signin", body)
	assert.Nil(SignIn(service)(c))
	assert.Equal(http.StatusOK, rec.Code)

	result := &auth.SignInResult{}
	assert.Nil(json.Unmarshal(rec.Body.Bytes(), result))
	assert.Equal("token", result.AccessToken)
}

func TestPublicKeyHandler(t *testing.T) {
	assert := assert.New(t)

	public, _, err := ed25519.GenerateKey(rand.Reader)
	assert.Nil(err)
	address := base58.Encode(public)

	t.Run("serves the address as a JWK", func(t *testing.T) {
		c, rec := newContext(t, http.MethodGet, "/", "")
		c.SetParamNames("id")
		c.SetParamValues(address)

		assert.Nil(PublicKey()(c))
		assert.Equal(http.StatusOK, rec.Code)

		key := map[string]interface{}{}
		assert.Nil(json.Unmarshal(rec.Body.Bytes(), &key))
		assert.Equal("OKP", key["kty"])
		assert.Equal("EdDSA", key["alg"])
		assert.Equal("sig", key["use"])
		assert.Equal(address, key["kid"])
	})

	t.Run("malformed address is rejected", func(t *testing.T) {
		c, _ := newContext(t, http.MethodGet, "/", "")
		c.SetParamNames("id")
		c.SetParamValues("not-a-key")

		err := PublicKey()(c)
		assert.ErrorIs(err, model.ErrorInvalidArgument)
	})
}
