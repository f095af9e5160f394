package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qwestive/qwestive-api/internal/model"
)

type HoldingsService interface {
	Refresh(ctx context.Context, userID model.UserID) (*model.HoldingsSnapshot, error)
}

func RefreshHoldings(holdings HoldingsService) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := CurrentUser(c)
		if err != nil {
			return err
		}
		snapshot, err := holdings.Refresh(c.Request().Context(), userID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, snapshot)
	}
}
