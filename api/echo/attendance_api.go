package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shuleni/backend/core/attendance"
	"github.com/shuleni/backend/core/principal"
)

type attendanceApi struct {
	prinSvc  *principal.Service
	attSvc   *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	prinSvc *principal.Service,
	attSvc *attendance.Service,
	validate *validator.Validate,
) {
	api := attendanceApi{
		prinSvc:  prinSvc,
		attSvc:   attSvc,
		validate: validate,
	}

	ag := g.Group("/attendance", jwt)
	ag.POST("/mark", api.mark, roleMiddleware(prinSvc, principal.RoleTeacher))
	ag.GET("", api.query)
}

// mark records today's attendance; only teachers mark, and only within their
// own class set.
func (api *attendanceApi) mark(ctx echo.Context) error {
	prin, err := getContextPrincipal(ctx, api.prinSvc)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	var data attendance.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	att, err := api.attSvc.Mark(ctx.Request().Context(), prin.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, att)
}

// query lists raw records filtered down to whatever the caller may see.
func (api *attendanceApi) query(ctx echo.Context) error {
	prin, err := getContextPrincipal(ctx, api.prinSvc)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}
	query := attendance.ListQuery{
		ReportFilter: filter,
		StudentID:    ctx.QueryParam("student_id"),
		ClassID:      ctx.QueryParam("class_id"),
		SchoolID:     ctx.QueryParam("school_id"),
	}

	rows, err := api.attSvc.ListForPrincipal(ctx.Request().Context(), prin, query)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []attendance.Attendance{}
	}
	return ctx.JSON(http.StatusOK, rows)
}
