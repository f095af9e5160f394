// Package vote applies up/down votes to posts and comments. A user sits in
// at most one of the two vote sets of an item; moving between them is a
// single atomic set update at the store.
package vote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/qwestive/qwestive-api/internal/model"
	"github.com/qwestive/qwestive-api/pkg/tokengate"
)

type RecordStore interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	UpdateArrays(ctx context.Context, collection, id string, union, remove map[string]string) error
}

type service struct {
	store RecordStore
}

func New(store RecordStore) *service {
	return &service{store: store}
}

// VotePost records the user's vote on a post, gated by the post's own
// access policy.
func (s *service) VotePost(ctx context.Context, userID model.UserID, postID string, direction model.VoteDirection) error {
	user, err := s.fetchUser(ctx, userID)
	if err != nil {
		return err
	}
	post, err := s.fetchContent(ctx, model.CollectionPosts, postID)
	if err != nil {
		return err
	}
	if err := checkAccess(user, post); err != nil {
		return err
	}
	return s.apply(ctx, model.CollectionPosts, postID, post, userID, direction)
}

// VoteComment records the user's vote on a comment. Access is gated by the
// parent post's policy, not anything on the comment itself.
func (s *service) VoteComment(ctx context.Context, userID model.UserID, commentID string, direction model.VoteDirection) error {
	user, err := s.fetchUser(ctx, userID)
	if err != nil {
		return err
	}
	comment, err := s.fetchContent(ctx, model.CollectionComments, commentID)
	if err != nil {
		return err
	}
	post, err := s.fetchContent(ctx, model.CollectionPosts, comment.PostID)
	if err != nil {
		return err
	}
	if err := checkAccess(user, post); err != nil {
		return err
	}
	return s.apply(ctx, model.CollectionComments, commentID, comment, userID, direction)
}

func (s *service) fetchUser(ctx context.Context, userID model.UserID) (*model.User, error) {
	raw, err := s.store.Get(ctx, model.CollectionUsers, string(userID))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("invalid user credentials: %w", model.ErrorNotFound)
		}
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}
	user := &model.User{}
	if err := json.Unmarshal(raw, user); err != nil {
		return nil, fmt.Errorf("decoding user %s: %w", userID, err)
	}
	return user, nil
}

func (s *service) fetchContent(ctx context.Context, collection, id string) (*model.Content, error) {
	if id == "" {
		return nil, fmt.Errorf("missing %s id: %w", collection, model.ErrorInvalidArgument)
	}
	raw, err := s.store.Get(ctx, collection, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s %s does not exist: %w", collection, id, model.ErrorNotFound)
		}
		return nil, fmt.Errorf("fetching %s %s: %w", collection, id, err)
	}
	content := &model.Content{}
	if err := json.Unmarshal(raw, content); err != nil {
		return nil, fmt.Errorf("decoding %s %s: %w", collection, id, err)
	}
	return content, nil
}

func checkAccess(user *model.User, post *model.Content) error {
	policy := tokengate.Policy{
		AccessID:             post.AccessID,
		MinimumAccessBalance: post.MinimumAccessBalance,
	}
	if !tokengate.HasAccess(user.Holdings(), policy) {
		return fmt.Errorf("user does not meet the minimum token balance to vote: %w", model.ErrorPermissionDenied)
	}
	return nil
}

// apply moves the user into the voted set and out of the opposite one. The
// duplicate check surfaces as an error rather than a silent no-op.
func (s *service) apply(ctx context.Context, collection, id string, content *model.Content, userID model.UserID, direction model.VoteDirection) error {
	sameField, otherField := model.FieldUpVoteUserIDs, model.FieldDownVoteUserIDs
	same := content.UpVoteUserIDs
	if direction == model.VoteDown {
		sameField, otherField = otherField, sameField
		same = content.DownVoteUserIDs
	}

	for _, voter := range same {
		if voter == string(userID) {
			return fmt.Errorf("user %s already voted on %s %s: %w", userID, collection, id, model.ErrorAlreadyVoted)
		}
	}

	err := s.store.UpdateArrays(ctx, collection, id,
		map[string]string{sameField: string(userID)},
		map[string]string{otherField: string(userID)})
	if err != nil {
		return fmt.Errorf("recording vote on %s %s: %w", collection, id, err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrorNotFound)
}
