package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shuleni/backend/core"
	"github.com/shuleni/backend/core/attendance"
	"github.com/shuleni/backend/core/principal"
	"github.com/shuleni/backend/core/school"
	excelsvc "github.com/shuleni/backend/services/excel"
)

type administratorApi struct {
	prinSvc   *principal.Service
	schoolSvc *school.Service
	attSvc    *attendance.Service
}

func registerAdministratorAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	prinSvc *principal.Service,
	schoolSvc *school.Service,
	attSvc *attendance.Service,
) {
	api := administratorApi{
		prinSvc:   prinSvc,
		schoolSvc: schoolSvc,
		attSvc:    attSvc,
	}

	ag := g.Group("/administrator", jwt, roleMiddleware(prinSvc, principal.RoleAdministrator))

	ag.GET("/school", api.retrieveSchool)

	ag.POST("/teachers", api.createTeacher)
	ag.GET("/teachers", api.queryTeachers)
	ag.POST("/teachers/upload-excel", api.importTeachers)
	ag.GET("/teachers/:id", api.retrieveTeacher)
	ag.PUT("/teachers/:id", api.updateTeacher)
	ag.DELETE("/teachers/:id", api.destroyTeacher)

	ag.POST("/classes", api.createClass)
	ag.GET("/classes", api.queryClasses)
	ag.POST("/classes/upload-excel", api.importClasses)
	ag.GET("/classes/:id", api.retrieveClass)
	ag.PUT("/classes/:id", api.updateClass)
	ag.DELETE("/classes/:id", api.destroyClass)

	ag.POST("/students", api.createStudent)
	ag.GET("/students", api.queryStudents)
	ag.POST("/students/upload-excel", api.importStudents)
	ag.GET("/students/export-excel", api.exportStudents)
	ag.GET("/students/:id", api.retrieveStudent)
	ag.PUT("/students/:id", api.updateStudent)
	ag.DELETE("/students/:id", api.destroyStudent)

	ag.GET("/attendance/student/:id", api.studentReport)
	ag.GET("/attendance/class/:id", api.classReport)
	ag.GET("/attendance/school", api.schoolReport)
	ag.GET("/attendance/school/excel", api.exportSchoolAttendance)
}

func (api *administratorApi) adminID(ctx echo.Context) (string, error) {
	prin, err := getContextPrincipal(ctx, api.prinSvc)
	if err != nil {
		return "", errors.Wrap(err, "getting context principal")
	}
	return prin.ID, nil
}

func (api *administratorApi) retrieveSchool(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	sch, err := api.schoolSvc.SchoolForAdmin(ctx.Request().Context(), adminID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sch)
}

// Teacher handlers

func (api *administratorApi) createTeacher(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}

	var data school.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}

	t, err := api.schoolSvc.CreateTeacherForAdmin(ctx.Request().Context(), adminID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *administratorApi) queryTeachers(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	teachers, err := api.schoolSvc.TeachersForAdmin(ctx.Request().Context(), adminID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *administratorApi) retrieveTeacher(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	t, err := api.schoolSvc.GetTeacherForAdmin(ctx.Request().Context(), adminID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *administratorApi) updateTeacher(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}

	var data school.UpdateTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}

	t, err := api.schoolSvc.UpdateTeacherForAdmin(ctx.Request().Context(), adminID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *administratorApi) destroyTeacher(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	if err := api.schoolSvc.DeleteTeacherForAdmin(ctx.Request().Context(), adminID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *administratorApi) importTeachers(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	f, err := importFile(ctx)
	if err != nil {
		return err
	}
	defer f.Close()
	rows, err := excelsvc.ParseTeachers(f)
	if err != nil {
		return core.NewValidationError(errors.New("invalid spreadsheet file"))
	}

	count, err := api.schoolSvc.ImportTeachersForAdmin(ctx.Request().Context(), adminID, rows)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ImportResponse{Created: count})
}

// Class handlers

func (api *administratorApi) createClass(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}

	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}

	cls, err := api.schoolSvc.CreateClassForAdmin(ctx.Request().Context(), adminID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *administratorApi) queryClasses(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	classes, err := api.schoolSvc.ClassesForAdmin(ctx.Request().Context(), adminID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *administratorApi) retrieveClass(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	cls, err := api.schoolSvc.GetClassForAdmin(ctx.Request().Context(), adminID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *administratorApi) updateClass(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}

	var data school.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}

	cls, err := api.schoolSvc.UpdateClassForAdmin(ctx.Request().Context(), adminID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *administratorApi) destroyClass(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	if err := api.schoolSvc.DeleteClassForAdmin(ctx.Request().Context(), adminID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *administratorApi) importClasses(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	f, err := importFile(ctx)
	if err != nil {
		return err
	}
	defer f.Close()
	rows, err := excelsvc.ParseClasses(f)
	if err != nil {
		return core.NewValidationError(errors.New("invalid spreadsheet file"))
	}

	count, err := api.schoolSvc.ImportClassesForAdmin(ctx.Request().Context(), adminID, rows)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ImportResponse{Created: count})
}

// Student handlers

func (api *administratorApi) createStudent(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}

	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	st, err := api.schoolSvc.CreateStudentForAdmin(ctx.Request().Context(), adminID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *administratorApi) queryStudents(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	students, err := api.schoolSvc.StudentsForAdmin(ctx.Request().Context(), adminID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *administratorApi) retrieveStudent(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	st, err := api.schoolSvc.GetStudentForAdmin(ctx.Request().Context(), adminID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *administratorApi) updateStudent(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}

	var data school.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}

	st, err := api.schoolSvc.UpdateStudentForAdmin(ctx.Request().Context(), adminID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *administratorApi) destroyStudent(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	if err := api.schoolSvc.DeleteStudentForAdmin(ctx.Request().Context(), adminID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *administratorApi) importStudents(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	f, err := importFile(ctx)
	if err != nil {
		return err
	}
	defer f.Close()
	rows, err := excelsvc.ParseStudents(f)
	if err != nil {
		return core.NewValidationError(errors.New("invalid spreadsheet file"))
	}

	count, err := api.schoolSvc.ImportStudentsForAdmin(ctx.Request().Context(), adminID, rows)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ImportResponse{Updated: count})
}

func (api *administratorApi) exportStudents(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	students, err := api.schoolSvc.StudentsForAdmin(reqCtx, adminID)
	if err != nil {
		return err
	}
	classes, err := api.schoolSvc.ClassesForAdmin(reqCtx, adminID)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(classes))
	for _, cls := range classes {
		names[cls.ID] = cls.Name
	}

	buf, err := excelsvc.StudentsWorkbook(students, names)
	if err != nil {
		return errors.Wrap(err, "rendering students workbook")
	}
	return sendWorkbook(ctx, "students.xlsx", buf)
}

// Attendance handlers

func (api *administratorApi) studentReport(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}

	rep, err := api.attSvc.StudentReportForAdmin(ctx.Request().Context(), adminID, ctx.Param("id"), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *administratorApi) classReport(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}

	rep, err := api.attSvc.ClassReportForAdmin(ctx.Request().Context(), adminID, ctx.Param("id"), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *administratorApi) schoolReport(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}

	rep, err := api.attSvc.SchoolReportForAdmin(ctx.Request().Context(), adminID, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *administratorApi) exportSchoolAttendance(ctx echo.Context) error {
	adminID, err := api.adminID(ctx)
	if err != nil {
		return err
	}
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}

	rows, err := api.attSvc.SchoolRecordsForAdmin(ctx.Request().Context(), adminID, filter)
	if err != nil {
		return err
	}
	buf, err := excelsvc.RawAttendanceWorkbook(rows)
	if err != nil {
		return errors.Wrap(err, "rendering attendance workbook")
	}
	return sendWorkbook(ctx, "attendance.xlsx", buf)
}

// ImportResponse reports how many spreadsheet rows survived a bulk import.
type ImportResponse struct {
	Created int `json:"created,omitempty"`
	Updated int `json:"updated,omitempty"`
}
