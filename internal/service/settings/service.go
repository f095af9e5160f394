// Package settings edits user-controlled profile fields.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/qwestive/qwestive-api/internal/model"
)

const (
	UserNameMinLength = 4
	UserNameMaxLength = 20
)

type RecordStore interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Query(ctx context.Context, collection, field string, value interface{}) ([]string, error)
}

type service struct {
	store RecordStore
}

func New(store RecordStore) *service {
	return &service{store: store}
}

// EditUserName changes the user's handle. The name must be 4-20 characters,
// or exactly the wallet address; it must not be taken by another user.
// Setting the current name again is a no-op.
func (s *service) EditUserName(ctx context.Context, userID model.UserID, newUserName string) error {
	if len(newUserName) < UserNameMinLength ||
		(len(newUserName) > UserNameMaxLength && newUserName != string(userID)) {
		return fmt.Errorf("userName must be between %d and %d characters or be the wallet address: %w",
			UserNameMinLength, UserNameMaxLength, model.ErrorInvalidArgument)
	}

	raw, err := s.store.Get(ctx, model.CollectionUsers, string(userID))
	if err != nil {
		if errors.Is(err, model.ErrorNotFound) {
			return fmt.Errorf("unable to retrieve user %s: %w", userID, model.ErrorUnavailable)
		}
		return fmt.Errorf("fetching user %s: %w", userID, err)
	}
	user := &model.User{}
	if err := json.Unmarshal(raw, user); err != nil {
		return fmt.Errorf("decoding user %s: %w", userID, err)
	}
	if user.UserName == newUserName {
		return nil
	}

	taken, err := s.store.Query(ctx, model.CollectionUsers, "userName", newUserName)
	if err != nil {
		return fmt.Errorf("checking userName %s: %v: %w", newUserName, err, model.ErrorUnavailable)
	}
	if len(taken) != 0 {
		return fmt.Errorf("the userName %s is taken: %w", newUserName, model.ErrorInvalidArgument)
	}

	err = s.store.Update(ctx, model.CollectionUsers, string(userID), map[string]interface{}{"userName": newUserName})
	if err != nil {
		return fmt.Errorf("changing userName for %s: %v: %w", userID, err, model.ErrorUnavailable)
	}
	return nil
}
