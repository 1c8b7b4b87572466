package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shuleni/backend/core/attendance"
	"github.com/shuleni/backend/core/principal"
	"github.com/shuleni/backend/core/school"
	excelsvc "github.com/shuleni/backend/services/excel"
)

type teacherApi struct {
	prinSvc   *principal.Service
	schoolSvc *school.Service
	attSvc    *attendance.Service
	validate  *validator.Validate
}

func registerTeacherAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	prinSvc *principal.Service,
	schoolSvc *school.Service,
	attSvc *attendance.Service,
	validate *validator.Validate,
) {
	api := teacherApi{
		prinSvc:   prinSvc,
		schoolSvc: schoolSvc,
		attSvc:    attSvc,
		validate:  validate,
	}

	tg := g.Group("/teacher", jwt, roleMiddleware(prinSvc, principal.RoleTeacher))

	tg.GET("/students", api.queryStudents)
	tg.GET("/classes", api.queryClasses)

	tg.POST("/attendance/student/:id", api.markStudent)
	tg.GET("/attendance/student/:id", api.studentReport)
	tg.GET("/attendance/student/:id/export", api.exportStudentAttendance)
	tg.GET("/attendance/class", api.classAttendance)
	tg.GET("/attendance/class/export", api.exportClassAttendance)
}

func (api *teacherApi) teacherID(ctx echo.Context) (string, error) {
	prin, err := getContextPrincipal(ctx, api.prinSvc)
	if err != nil {
		return "", errors.Wrap(err, "getting context principal")
	}
	return prin.ID, nil
}

func (api *teacherApi) queryStudents(ctx echo.Context) error {
	teacherID, err := api.teacherID(ctx)
	if err != nil {
		return err
	}
	students, err := api.schoolSvc.StudentsForTeacher(ctx.Request().Context(), teacherID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *teacherApi) queryClasses(ctx echo.Context) error {
	teacherID, err := api.teacherID(ctx)
	if err != nil {
		return err
	}
	classes, err := api.schoolSvc.ClassesForTeacher(ctx.Request().Context(), teacherID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, classes)
}

// markStudent records today's mark for one of the teacher's students.
func (api *teacherApi) markStudent(ctx echo.Context) error {
	teacherID, err := api.teacherID(ctx)
	if err != nil {
		return err
	}

	var data MarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	att, err := api.attSvc.Mark(ctx.Request().Context(), teacherID, attendance.NewAttendance{
		StudentID: ctx.Param("id"),
		Status:    data.Status,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *teacherApi) studentReport(ctx echo.Context) error {
	teacherID, err := api.teacherID(ctx)
	if err != nil {
		return err
	}
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}

	rep, err := api.attSvc.StudentReportForTeacher(ctx.Request().Context(), teacherID, ctx.Param("id"), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *teacherApi) exportStudentAttendance(ctx echo.Context) error {
	teacherID, err := api.teacherID(ctx)
	if err != nil {
		return err
	}
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}

	rows, err := api.attSvc.StudentRecordsForTeacher(ctx.Request().Context(), teacherID, ctx.Param("id"), filter)
	if err != nil {
		return err
	}
	buf, err := excelsvc.StudentAttendanceWorkbook(rows)
	if err != nil {
		return errors.Wrap(err, "rendering attendance workbook")
	}
	return sendWorkbook(ctx, "attendance.xlsx", buf)
}

func (api *teacherApi) classAttendance(ctx echo.Context) error {
	teacherID, err := api.teacherID(ctx)
	if err != nil {
		return err
	}
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}

	classes, err := api.attSvc.ClassAttendanceForTeacher(ctx.Request().Context(), teacherID, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *teacherApi) exportClassAttendance(ctx echo.Context) error {
	teacherID, err := api.teacherID(ctx)
	if err != nil {
		return err
	}
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}

	classes, err := api.attSvc.ClassAttendanceForTeacher(ctx.Request().Context(), teacherID, filter)
	if err != nil {
		return err
	}
	buf, err := excelsvc.ClassAttendanceWorkbook(classes)
	if err != nil {
		return errors.Wrap(err, "rendering attendance workbook")
	}
	return sendWorkbook(ctx, "attendance.xlsx", buf)
}

// MarkRequest carries a mark for the student named in the URL.
type MarkRequest struct {
	Status string `json:"status" validate:"required"`
}
