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

type superAdminApi struct {
	prinSvc   *principal.Service
	schoolSvc *school.Service
	attSvc    *attendance.Service
}

func registerSuperAdminAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	prinSvc *principal.Service,
	schoolSvc *school.Service,
	attSvc *attendance.Service,
) {
	api := superAdminApi{
		prinSvc:   prinSvc,
		schoolSvc: schoolSvc,
		attSvc:    attSvc,
	}

	sg := g.Group("/superadmin", jwt, roleMiddleware(prinSvc, principal.RoleSuperAdmin))

	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)

	sg.POST("/administrators", api.createAdministrator)
	sg.GET("/administrators", api.queryAdministrators)
	sg.GET("/administrators/:id", api.retrieveAdministrator)
	sg.PUT("/administrators/:id", api.updateAdministrator)
	sg.DELETE("/administrators/:id", api.destroyAdministrator)

	sg.POST("/schools", api.createSchool)
	sg.GET("/schools", api.querySchools)
	sg.GET("/schools/:id", api.retrieveSchool)
	sg.PUT("/schools/:id", api.updateSchool)
	sg.DELETE("/schools/:id", api.destroySchool)

	sg.POST("/teachers", api.createTeacher)
	sg.GET("/teachers", api.queryTeachers)
	sg.GET("/teachers/:id", api.retrieveTeacher)
	sg.PUT("/teachers/:id", api.updateTeacher)
	sg.DELETE("/teachers/:id", api.destroyTeacher)

	sg.POST("/students", api.createStudent)
	sg.GET("/students", api.queryStudents)
	sg.GET("/students/export-excel", api.exportStudents)
	sg.GET("/students/:id", api.retrieveStudent)
	sg.PUT("/students/:id", api.updateStudent)
	sg.DELETE("/students/:id", api.destroyStudent)

	sg.GET("/attendance/report", api.attendanceReport)
	sg.GET("/attendance/report/excel", api.exportAttendance)
}

// Superadmin handlers

func (api *superAdminApi) create(ctx echo.Context) error {
	var data principal.NewSuperAdmin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSuperAdmin")
	}
	if err := data.Validate(ctx.Request().Context(), api.prinSvc); err != nil {
		return err
	}

	sa, err := api.prinSvc.CreateSuperAdmin(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating superadmin")
	}
	return ctx.JSON(http.StatusCreated, sa)
}

func (api *superAdminApi) query(ctx echo.Context) error {
	sas, err := api.prinSvc.QueryAllSuperAdmins(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying superadmins")
	}
	return ctx.JSON(http.StatusOK, sas)
}

func (api *superAdminApi) retrieve(ctx echo.Context) error {
	sa, err := api.prinSvc.GetSuperAdminByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sa)
}

func (api *superAdminApi) update(ctx echo.Context) error {
	orig, err := api.prinSvc.GetSuperAdminByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data principal.UpdateSuperAdmin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSuperAdmin")
	}
	if err := data.Validate(ctx.Request().Context(), api.prinSvc, orig); err != nil {
		return err
	}

	sa, err := api.prinSvc.UpdateSuperAdmin(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating superadmin")
	}
	return ctx.JSON(http.StatusOK, sa)
}

func (api *superAdminApi) destroy(ctx echo.Context) error {
	sa, err := api.prinSvc.GetSuperAdminByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	// Say No to Suicide! callers cannot delete themselves
	prin, err := getContextPrincipal(ctx, api.prinSvc)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}
	if sa.ID == prin.ID {
		return errHttpForbidden
	}

	if err := api.prinSvc.DeleteSuperAdmins(ctx.Request().Context(), sa.ID); err != nil {
		return errors.Wrap(err, "deleting superadmin")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Administrator handlers

func (api *superAdminApi) createAdministrator(ctx echo.Context) error {
	var data principal.NewAdministrator
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAdministrator")
	}
	if err := data.Validate(ctx.Request().Context(), api.prinSvc); err != nil {
		return err
	}

	adm, err := api.prinSvc.CreateAdministrator(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating administrator")
	}
	return ctx.JSON(http.StatusCreated, adm)
}

func (api *superAdminApi) queryAdministrators(ctx echo.Context) error {
	adms, err := api.prinSvc.QueryAllAdministrators(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying administrators")
	}
	return ctx.JSON(http.StatusOK, adms)
}

func (api *superAdminApi) retrieveAdministrator(ctx echo.Context) error {
	adm, err := api.prinSvc.GetAdministratorByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, adm)
}

func (api *superAdminApi) updateAdministrator(ctx echo.Context) error {
	orig, err := api.prinSvc.GetAdministratorByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data principal.UpdateAdministrator
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAdministrator")
	}
	if err := data.Validate(ctx.Request().Context(), api.prinSvc, orig); err != nil {
		return err
	}

	adm, err := api.prinSvc.UpdateAdministrator(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating administrator")
	}
	return ctx.JSON(http.StatusOK, adm)
}

func (api *superAdminApi) destroyAdministrator(ctx echo.Context) error {
	adm, err := api.prinSvc.GetAdministratorByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.prinSvc.DeleteAdministrators(ctx.Request().Context(), adm.ID); err != nil {
		return errors.Wrap(err, "deleting administrator")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// School handlers

func (api *superAdminApi) createSchool(ctx echo.Context) error {
	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(api.schoolSvc); err != nil {
		return err
	}

	sch, err := api.schoolSvc.CreateSchool(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *superAdminApi) querySchools(ctx echo.Context) error {
	schools, err := api.schoolSvc.QueryAllSchools(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (api *superAdminApi) retrieveSchool(ctx echo.Context) error {
	sch, err := api.schoolSvc.GetSchoolByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *superAdminApi) updateSchool(ctx echo.Context) error {
	var data school.UpdateSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err := data.Validate(api.schoolSvc); err != nil {
		return err
	}

	sch, err := api.schoolSvc.UpdateSchool(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *superAdminApi) destroySchool(ctx echo.Context) error {
	sch, err := api.schoolSvc.GetSchoolByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.schoolSvc.DeleteSchools(ctx.Request().Context(), sch.ID); err != nil {
		return errors.Wrap(err, "deleting school")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Teacher handlers (global, unscoped)

func (api *superAdminApi) createTeacher(ctx echo.Context) error {
	var data school.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(ctx.Request().Context(), api.schoolSvc); err != nil {
		return err
	}

	t, err := api.schoolSvc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *superAdminApi) queryTeachers(ctx echo.Context) error {
	teachers, err := api.schoolSvc.QueryAllTeachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *superAdminApi) retrieveTeacher(ctx echo.Context) error {
	t, err := api.schoolSvc.GetTeacherByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *superAdminApi) updateTeacher(ctx echo.Context) error {
	orig, err := api.schoolSvc.GetTeacherByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data school.UpdateTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	if err := data.Validate(ctx.Request().Context(), api.schoolSvc, orig); err != nil {
		return err
	}

	t, err := api.schoolSvc.UpdateTeacher(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *superAdminApi) destroyTeacher(ctx echo.Context) error {
	t, err := api.schoolSvc.GetTeacherByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.schoolSvc.DeleteTeachers(ctx.Request().Context(), t.ID); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Student handlers (global, unscoped)

func (api *superAdminApi) createStudent(ctx echo.Context) error {
	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.schoolSvc); err != nil {
		return err
	}

	st, err := api.schoolSvc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *superAdminApi) queryStudents(ctx echo.Context) error {
	students, err := api.schoolSvc.QueryAllStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *superAdminApi) retrieveStudent(ctx echo.Context) error {
	st, err := api.schoolSvc.GetStudentByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *superAdminApi) updateStudent(ctx echo.Context) error {
	var data school.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.schoolSvc); err != nil {
		return err
	}

	st, err := api.schoolSvc.UpdateStudent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *superAdminApi) destroyStudent(ctx echo.Context) error {
	st, err := api.schoolSvc.GetStudentByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.schoolSvc.DeleteStudents(ctx.Request().Context(), st.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *superAdminApi) exportStudents(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	students, err := api.schoolSvc.QueryAllStudents(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	classes, err := api.schoolSvc.QueryAllClasses(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying classes")
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

func (api *superAdminApi) attendanceReport(ctx echo.Context) error {
	schoolID := ctx.QueryParam("school_id")
	if schoolID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "school_id", Error: "this field is required"})
	}
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}

	rep, err := api.attSvc.SchoolReport(ctx.Request().Context(), schoolID, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *superAdminApi) exportAttendance(ctx echo.Context) error {
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}

	var rows []attendance.Attendance
	if schoolID := ctx.QueryParam("school_id"); schoolID != "" {
		rows, err = api.attSvc.SchoolRecords(ctx.Request().Context(), schoolID, filter)
	} else {
		rows, err = api.attSvc.QueryAll(ctx.Request().Context(), filter)
	}
	if err != nil {
		return err
	}

	buf, err := excelsvc.RawAttendanceWorkbook(rows)
	if err != nil {
		return errors.Wrap(err, "rendering attendance workbook")
	}
	return sendWorkbook(ctx, "attendance.xlsx", buf)
}
