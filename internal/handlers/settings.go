package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qwestive/qwestive-api/internal/model"
)

type SettingsService interface {
	EditUserName(ctx context.Context, userID model.UserID, newUserName string) error
}

type editUserNameRequest struct {
	UserName string `json:"userName"`
}

func EditUserName(settings SettingsService) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := CurrentUser(c)
		if err != nil {
			return err
		}
		params := &editUserNameRequest{}
		if err := c.Bind(params); err != nil {
			return fmt.Errorf("binding userName request: %w", model.ErrorInvalidArgument)
		}
		if err := settings.EditUserName(c.Request().Context(), userID, params.UserName); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]string{"info": "userName changed successfully"})
	}
}
