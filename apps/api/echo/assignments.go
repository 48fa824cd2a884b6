package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/childclub/backend/core/assignment"
	"github.com/childclub/backend/core/dashboard"
	"github.com/childclub/backend/core/progress"
)

type assignmentAPI struct {
	svc     *assignment.Service
	tracker *progress.Tracker
	board   *dashboard.Board
}

func registerAssignmentAPI(g *echo.Group, svc *assignment.Service, tracker *progress.Tracker, board *dashboard.Board) {
	api := assignmentAPI{svc: svc, tracker: tracker, board: board}

	ag := g.Group("/assignments")
	ag.POST("", api.create)
	ag.GET("", api.query)

	// detail endpoints
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
	ag.POST("/:id/recur", api.recur)
	ag.GET("/:id/progress", api.progress)
}

// Handlers

func (api *assignmentAPI) create(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}

	a, err := api.svc.Create(ctx.Request().Context(), caller, data)
	if err != nil {
		return err
	}
	api.board.Invalidate()
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentAPI) query(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var filter assignment.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	if filter.DueFrom, filter.DueTo, err = parseRange(ctx, "due_from", "due_to"); err != nil {
		return err
	}

	as, err := api.svc.ListForAudience(ctx.Request().Context(), caller, filter)
	if err != nil {
		return err
	}
	if as == nil {
		as = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, as)
}

func (api *assignmentAPI) retrieve(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.Get(ctx.Request().Context(), caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentAPI) update(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}

	a, err := api.svc.Update(ctx.Request().Context(), caller, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	api.board.Invalidate()
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentAPI) destroy(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), caller, ctx.Param("id")); err != nil {
		return err
	}
	api.board.Invalidate()
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentAPI) recur(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.Recur(ctx.Request().Context(), caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	api.board.Invalidate()
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentAPI) progress(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	report, err := api.tracker.Progress(ctx.Request().Context(), caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}
