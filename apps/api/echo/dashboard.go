package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/childclub/backend/core/dashboard"
)

type dashboardAPI struct {
	board *dashboard.Board
}

func registerDashboardAPI(g *echo.Group, board *dashboard.Board) {
	api := dashboardAPI{board: board}

	g.GET("/dashboard", api.retrieve)
	g.POST("/dashboard/refresh", api.refresh)
}

func (api *dashboardAPI) retrieve(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	view, err := api.board.Get(ctx.Request().Context(), caller)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *dashboardAPI) refresh(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	view, err := api.board.Refresh(ctx.Request().Context(), caller)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}
