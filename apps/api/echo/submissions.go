package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/childclub/backend/core/dashboard"
	"github.com/childclub/backend/core/submission"
)

type submissionAPI struct {
	svc   *submission.Service
	board *dashboard.Board
}

func registerSubmissionAPI(g *echo.Group, svc *submission.Service, board *dashboard.Board) {
	api := submissionAPI{svc: svc, board: board}

	// Routes are registered on g directly: a sub-group on a group with middleware
	// adds catch-all routes for its own prefix, which would shadow /assignments/:id.
	g.GET("/assignments/:id/submissions", api.query)
	g.GET("/assignments/:id/submission", api.retrieveActive)
	g.PUT("/assignments/:id/submission", api.saveDraft)
	g.POST("/assignments/:id/submission/submit", api.submit)

	g.GET("/submissions/:id", api.retrieve)
	g.POST("/submissions/:id/review", api.review)
}

// Handlers

func (api *submissionAPI) query(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	subs, err := api.svc.List(ctx.Request().Context(), caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionAPI) retrieveActive(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.GetActive(ctx.Request().Context(), caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *submissionAPI) saveDraft(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data submission.Draft
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Draft")
	}

	s, err := api.svc.SaveDraft(ctx.Request().Context(), caller, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *submissionAPI) submit(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data submission.Submit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submit")
	}

	s, err := api.svc.Submit(ctx.Request().Context(), caller, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	api.board.Invalidate()
	return ctx.JSON(http.StatusOK, s)
}

func (api *submissionAPI) retrieve(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Get(ctx.Request().Context(), caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *submissionAPI) review(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data submission.Review
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}

	s, err := api.svc.Review(ctx.Request().Context(), caller, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	api.board.Invalidate()
	return ctx.JSON(http.StatusOK, s)
}
