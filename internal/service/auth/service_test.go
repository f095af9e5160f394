package auth

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/assert"

	"github.com/qwestive/qwestive-api/internal/model"
	"github.com/qwestive/qwestive-api/internal/recordstore"
	"github.com/qwestive/qwestive-api/pkg/session"
)

var databaseSequence int64

func newTestService(t *testing.T) (*service, *session.Issuer) {
	t.Helper()
	n := atomic.AddInt64(&databaseSequence, 1)
	store, err := recordstore.New(fmt.Sprintf("file:auth_test_%d?mode=memory&cache=shared", n))
	if err != nil {
		t.Fatalf("opening store: %+v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	sessions := session.NewIssuer([]byte("test-secret"), time.Hour)
	return New(store, sessions), sessions
}

type wallet struct {
	userID  model.UserID
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

func newWallet(t *testing.T) *wallet {
	t.Helper()
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %+v", err)
	}
	return &wallet{
		userID:  model.UserID(base58.Encode(public)),
		public:  public,
		private: private,
	}
}

func (w *wallet) sign(message string) []byte {
	return ed25519.Sign(w.private, []byte(message))
}

func TestCheckIn(t *testing.T) {
	assert := assert.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("malformed wallet id is rejected", func(t *testing.T) {
		_, err := svc.CheckIn(ctx, "not-a-wallet")
		assert.True(errors.Is(err, model.ErrorInvalidArgument))
	})

	t.Run("unregistered wallet gets the signup message", func(t *testing.T) {
		w := newWallet(t)
		result, err := svc.CheckIn(ctx, w.userID)
		assert.Nil(err)
		assert.Equal(InfoNewUserSignup, result.Info)
		assert.Equal(SignupMessage, result.Message)
	})

	t.Run("registered wallet gets a stable challenge", func(t *testing.T) {
		w := newWallet(t)
		register(t, svc, w)

		first, err := svc.CheckIn(ctx, w.userID)
		assert.Nil(err)
		assert.Equal(InfoSignNonce, first.Info)
		assert.Contains(first.Message, LoginMessage)

		second, err := svc.CheckIn(ctx, w.userID)
		assert.Nil(err)
		assert.Equal(first.Message, second.Message)
	})
}

func TestSignIn(t *testing.T) {
	assert := assert.New(t)
	svc, sessions := newTestService(t)
	ctx := context.Background()

	t.Run("first sign-in registers the wallet", func(t *testing.T) {
		w := newWallet(t)
		result, err := svc.SignIn(ctx, w.userID, []byte(SignupMessage), w.sign(SignupMessage), w.public)
		assert.Nil(err)
		assert.Equal(InfoNewUserRegistered, result.Info)

		userID, err := sessions.Verify(result.AccessToken)
		assert.Nil(err)
		assert.Equal(w.userID, userID)
	})

	t.Run("signed challenge authenticates and rotates the nonce", func(t *testing.T) {
		w := newWallet(t)
		register(t, svc, w)

		challenge, err := svc.CheckIn(ctx, w.userID)
		assert.Nil(err)

		result, err := svc.SignIn(ctx, w.userID, []byte(challenge.Message), w.sign(challenge.Message), w.public)
		assert.Nil(err)
		assert.Equal(InfoUserAuthenticated, result.Info)

		userID, err := sessions.Verify(result.AccessToken)
		assert.Nil(err)
		assert.Equal(w.userID, userID)

		next, err := svc.CheckIn(ctx, w.userID)
		assert.Nil(err)
		assert.NotEqual(challenge.Message, next.Message)
	})

	t.Run("replayed challenge fails after rotation", func(t *testing.T) {
		w := newWallet(t)
		register(t, svc, w)

		challenge, err := svc.CheckIn(ctx, w.userID)
		assert.Nil(err)
		signature := w.sign(challenge.Message)

		_, err = svc.SignIn(ctx, w.userID, []byte(challenge.Message), signature, w.public)
		assert.Nil(err)

		_, err = svc.SignIn(ctx, w.userID, []byte(challenge.Message), signature, w.public)
		assert.True(errors.Is(err, model.ErrorInvalidNonce))
	})

	t.Run("bad signature is denied and leaves the nonce alone", func(t *testing.T) {
		w := newWallet(t)
		register(t, svc, w)

		challenge, err := svc.CheckIn(ctx, w.userID)
		assert.Nil(err)

		signature := w.sign(challenge.Message)
		signature[0] ^= 0xff
		_, err = svc.SignIn(ctx, w.userID, []byte(challenge.Message), signature, w.public)
		assert.True(errors.Is(err, model.ErrorPermissionDenied))

		unchanged, err := svc.CheckIn(ctx, w.userID)
		assert.Nil(err)
		assert.Equal(challenge.Message, unchanged.Message)
	})

	t.Run("key for another wallet is denied", func(t *testing.T) {
		w := newWallet(t)
		register(t, svc, w)
		imposter := newWallet(t)

		challenge, err := svc.CheckIn(ctx, w.userID)
		assert.Nil(err)

		_, err = svc.SignIn(ctx, w.userID, []byte(challenge.Message), imposter.sign(challenge.Message), imposter.public)
		assert.True(errors.Is(err, model.ErrorPermissionDenied))
	})

	t.Run("wrong nonce is rejected without rotation", func(t *testing.T) {
		w := newWallet(t)
		register(t, svc, w)

		challenge, err := svc.CheckIn(ctx, w.userID)
		assert.Nil(err)

		forged := LoginMessage + " 000000"
		_, err = svc.SignIn(ctx, w.userID, []byte(forged), w.sign(forged), w.public)
		assert.True(errors.Is(err, model.ErrorInvalidNonce))

		unchanged, err := svc.CheckIn(ctx, w.userID)
		assert.Nil(err)
		assert.Equal(challenge.Message, unchanged.Message)
	})
}

func register(t *testing.T, svc *service, w *wallet) {
	t.Helper()
	_, err := svc.SignIn(context.Background(), w.userID, []byte(SignupMessage), w.sign(SignupMessage), w.public)
	if err != nil {
		t.Fatalf("registering wallet: %+v", err)
	}
}
