package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/childclub/backend/core/attendance"
	"github.com/childclub/backend/core/dashboard"
)

type attendanceAPI struct {
	svc   *attendance.Service
	board *dashboard.Board
}

func registerAttendanceAPI(g *echo.Group, svc *attendance.Service, board *dashboard.Board) {
	api := attendanceAPI{svc: svc, board: board}

	ag := g.Group("/attendance")
	ag.PUT("", api.mark)
	ag.GET("", api.query)
	ag.GET("/stats", api.stats)
}

func (api *attendanceAPI) bindFilter(ctx echo.Context) (attendance.QueryFilter, error) {
	var filter attendance.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return filter, errors.Wrap(err, "binding to QueryFilter")
	}
	var err error
	filter.From, filter.To, err = parseRange(ctx, "from", "to")
	return filter, err
}

// Handlers

func (api *attendanceAPI) mark(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data attendance.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}

	r, err := api.svc.Mark(ctx.Request().Context(), caller, data)
	if err != nil {
		return err
	}
	api.board.Invalidate()
	return ctx.JSON(http.StatusOK, r)
}

func (api *attendanceAPI) query(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}

	records, err := api.svc.Query(ctx.Request().Context(), caller, filter)
	if err != nil {
		return err
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceAPI) stats(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}

	st, err := api.svc.Stats(ctx.Request().Context(), caller, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}
