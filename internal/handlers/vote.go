package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qwestive/qwestive-api/internal/model"
)

type VoteService interface {
	VotePost(ctx context.Context, userID model.UserID, postID string, direction model.VoteDirection) error
	VoteComment(ctx context.Context, userID model.UserID, commentID string, direction model.VoteDirection) error
}

func VotePost(votes VoteService, direction model.VoteDirection) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := CurrentUser(c)
		if err != nil {
			return err
		}
		postID := c.Param("id")
		if err := votes.VotePost(c.Request().Context(), userID, postID, direction); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]string{
			"info": fmt.Sprintf("%s vote for Post ID: %s from User ID: %s success", directionLabel(direction), postID, userID),
		})
	}
}

func VoteComment(votes VoteService, direction model.VoteDirection) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := CurrentUser(c)
		if err != nil {
			return err
		}
		commentID := c.Param("id")
		if err := votes.VoteComment(c.Request().Context(), userID, commentID, direction); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]string{
			"info": fmt.Sprintf("%s vote for Comment ID: %s from User ID: %s success", directionLabel(direction), commentID, userID),
		})
	}
}

func directionLabel(direction model.VoteDirection) string {
	if direction == model.VoteDown {
		return "Down"
	}
	return "Up"
}
