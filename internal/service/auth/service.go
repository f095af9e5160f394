// Package auth implements the two-step wallet check-in: a nonce challenge
// handed out on check-in, and a detached ed25519 signature over that
// challenge verified on sign-in, after which a session credential is issued.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/nacl/sign"

	"github.com/qwestive/qwestive-api/internal/model"
)

const (
	LoginMessage  = "Sign this message to login into Qwestive."
	SignupMessage = "Sign this message to signup into Qwestive."
)

const (
	InfoNewUserSignup     = "New user Signup"
	InfoUserCreated       = "User not found, created it"
	InfoSignNonce         = "User needs to sign the nonce"
	InfoNonceReissued     = "No nonce was found, we made a new one"
	InfoNewUserRegistered = "New user can Signup"
	InfoUserAuthenticated = "User can Login"
)

type RecordStore interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	Set(ctx context.Context, collection, id string, record interface{}) error
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	CompareAndSwap(ctx context.Context, collection, id, field string, oldValue, newValue interface{}) (bool, error)
}

type SessionIssuer interface {
	Issue(userID model.UserID) (string, error)
}

type CheckInResult struct {
	Info    string `json:"info"`
	Message string `json:"message"`
}

type SignInResult struct {
	Info        string `json:"info"`
	AccessToken string `json:"accessToken"`
}

type service struct {
	store    RecordStore
	sessions SessionIssuer
}

func New(store RecordStore, sessions SessionIssuer) *service {
	return &service{store: store, sessions: sessions}
}

// CheckIn starts the sign-in handshake. Unregistered wallets get the signup
// message; registered wallets get the login message with their current nonce
// embedded. Repeated calls before a successful sign-in return the same nonce.
func (s *service) CheckIn(ctx context.Context, userID model.UserID) (*CheckInResult, error) {
	if err := validateWalletID(userID); err != nil {
		return nil, err
	}

	_, err := s.store.Get(ctx, model.CollectionAuthUsers, string(userID))
	if err != nil {
		if isNotFound(err) {
			return &CheckInResult{Info: InfoNewUserSignup, Message: SignupMessage}, nil
		}
		return nil, unavailable(fmt.Sprintf("checking registration for %s", userID), err)
	}

	raw, err := s.store.Get(ctx, model.CollectionUsers, string(userID))
	if err != nil {
		if !isNotFound(err) {
			return nil, unavailable(fmt.Sprintf("fetching user %s", userID), err)
		}
		// Registered but no stored record: recreate it with a fresh nonce.
		nonce, err := generateNonce()
		if err != nil {
			return nil, unavailable("generating nonce", err)
		}
		if err := s.store.Set(ctx, model.CollectionUsers, string(userID), map[string]interface{}{"nonce": nonce}); err != nil {
			return nil, unavailable(fmt.Sprintf("creating user %s", userID), err)
		}
		return &CheckInResult{Info: InfoUserCreated, Message: challengeMessage(nonce)}, nil
	}

	user := &model.User{}
	if err := json.Unmarshal(raw, user); err != nil {
		return nil, unavailable(fmt.Sprintf("decoding user %s", userID), err)
	}

	if user.Nonce != nil {
		return &CheckInResult{Info: InfoSignNonce, Message: challengeMessage(*user.Nonce)}, nil
	}

	// A record without a nonce should not occur; issue a new one.
	nonce, err := generateNonce()
	if err != nil {
		return nil, unavailable("generating nonce", err)
	}
	if err := s.store.Update(ctx, model.CollectionUsers, string(userID), map[string]interface{}{"nonce": nonce}); err != nil {
		return nil, unavailable(fmt.Sprintf("storing nonce for %s", userID), err)
	}
	return &CheckInResult{Info: InfoNonceReissued, Message: challengeMessage(nonce)}, nil
}

// SignIn completes the handshake. The signature is verified before anything
// is read or written; a first-time wallet is registered with a default
// profile, an existing wallet must present the current nonce, which is then
// rotated with a compare-and-set so a losing concurrent attempt fails
// cleanly instead of clobbering the new nonce.
func (s *service) SignIn(ctx context.Context, userID model.UserID, message, signature, publicKey []byte) (*SignInResult, error) {
	if !verifyDetached(message, signature, publicKey) {
		return nil, fmt.Errorf("verifying signature for %s: %w", userID, model.ErrorPermissionDenied)
	}
	if base58.Encode(publicKey) != string(userID) {
		return nil, fmt.Errorf("public key does not match wallet %s: %w", userID, model.ErrorPermissionDenied)
	}

	_, err := s.store.Get(ctx, model.CollectionAuthUsers, string(userID))
	if err != nil {
		if isNotFound(err) {
			return s.register(ctx, userID)
		}
		return nil, unavailable(fmt.Sprintf("checking registration for %s", userID), err)
	}

	return s.login(ctx, userID, message)
}

func (s *service) register(ctx context.Context, userID model.UserID) (*SignInResult, error) {
	nonce, err := generateNonce()
	if err != nil {
		return nil, unavailable("generating nonce", err)
	}

	user := &model.User{
		Nonce:        &nonce,
		UserName:     string(userID),
		ProfileImage: model.DefaultProfileImage,
		CoverImage:   model.DefaultCoverImage,
	}
	if err := s.store.Set(ctx, model.CollectionUsers, string(userID), user); err != nil {
		return nil, unavailable(fmt.Sprintf("creating user %s", userID), err)
	}
	if err := s.store.Set(ctx, model.CollectionAuthUsers, string(userID), &model.AuthUser{CreatedAt: time.Now().UTC()}); err != nil {
		return nil, unavailable(fmt.Sprintf("registering user %s", userID), err)
	}

	token, err := s.sessions.Issue(userID)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("issuing session for %s", userID), err)
	}
	return &SignInResult{Info: InfoNewUserRegistered, AccessToken: token}, nil
}

func (s *service) login(ctx context.Context, userID model.UserID, message []byte) (*SignInResult, error) {
	decoded := string(message)
	if len(decoded) < 6 {
		return nil, fmt.Errorf("message carries no nonce for %s: %w", userID, model.ErrorInvalidNonce)
	}
	presented := decoded[len(decoded)-6:]

	raw, err := s.store.Get(ctx, model.CollectionUsers, string(userID))
	if err != nil {
		return nil, unavailable(fmt.Sprintf("user %s not found, could not verify nonce", userID), err)
	}
	user := &model.User{}
	if err := json.Unmarshal(raw, user); err != nil {
		return nil, unavailable(fmt.Sprintf("decoding user %s", userID), err)
	}
	if user.Nonce == nil {
		return nil, unavailable(fmt.Sprintf("user %s has no stored nonce", userID), model.ErrorInvalidNonce)
	}

	if strconv.Itoa(*user.Nonce) != presented {
		// The stored nonce stays untouched so a legitimate concurrent
		// attempt is not invalidated by a bad guess.
		return nil, fmt.Errorf("nonce mismatch for %s: %w", userID, model.ErrorInvalidNonce)
	}

	next, err := generateNonce()
	if err != nil {
		return nil, unavailable("generating nonce", err)
	}
	swapped, err := s.store.CompareAndSwap(ctx, model.CollectionUsers, string(userID), "nonce", *user.Nonce, next)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("rotating nonce for %s", userID), err)
	}
	if !swapped {
		return nil, fmt.Errorf("nonce already rotated for %s: %w", userID, model.ErrorInvalidNonce)
	}

	token, err := s.sessions.Issue(userID)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("issuing session for %s", userID), err)
	}
	return &SignInResult{Info: InfoUserAuthenticated, AccessToken: token}, nil
}

// verifyDetached checks an ed25519 signature produced separately from the
// message, the scheme wallet adapters use. nacl expects signature||message.
func verifyDetached(message, signature, publicKey []byte) bool {
	if len(signature) != sign.Overhead || len(publicKey) != 32 {
		return false
	}
	signed := make([]byte, 0, len(signature)+len(message))
	signed = append(signed, signature...)
	signed = append(signed, message...)
	_, ok := sign.Open(nil, signed, (*[32]byte)(publicKey))
	return ok
}

func validateWalletID(userID model.UserID) error {
	if len(base58.Decode(string(userID))) != 32 {
		return fmt.Errorf("wallet id %q is not a base58 public key: %w", userID, model.ErrorInvalidArgument)
	}
	return nil
}

func generateNonce() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return 0, fmt.Errorf("reading random nonce: %w", err)
	}
	return int(n.Int64()) + 100000, nil
}

func challengeMessage(nonce int) string {
	return fmt.Sprintf("%s %d", LoginMessage, nonce)
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrorNotFound)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, model.ErrorUnavailable)
}
