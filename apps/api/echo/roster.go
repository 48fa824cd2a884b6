package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/childclub/backend/core/dashboard"
	"github.com/childclub/backend/core/roster"
)

type (
	rosterAPI struct {
		svc   *roster.Service
		board *dashboard.Board
	}

	MembersRequest struct {
		SchoolID   string   `json:"school_id"` // super admins only
		StudentIDs []string `json:"student_ids"`
	}

	MembersResponse struct {
		ClassID    string   `json:"class_id"`
		StudentIDs []string `json:"student_ids"`
	}
)

func registerRosterAPI(g *echo.Group, svc *roster.Service, board *dashboard.Board) {
	api := rosterAPI{svc: svc, board: board}

	g.GET("/classes/:id/members", api.members)
	g.PUT("/classes/:id/members", api.setMembers)
}

func (api *rosterAPI) members(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	classID := ctx.Param("id")
	ids, err := api.svc.ClassMembers(ctx.Request().Context(), caller, classID)
	if err != nil {
		return err
	}
	if ids == nil {
		ids = []string{}
	}
	return ctx.JSON(http.StatusOK, MembersResponse{ClassID: classID, StudentIDs: ids})
}

func (api *rosterAPI) setMembers(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data MembersRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MembersRequest")
	}

	classID := ctx.Param("id")
	c := ctx.Request().Context()
	if err := api.svc.SetMembers(c, caller, data.SchoolID, classID, data.StudentIDs); err != nil {
		return err
	}
	api.board.Invalidate()

	ids, err := api.svc.Members(c, classID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MembersResponse{ClassID: classID, StudentIDs: ids})
}
