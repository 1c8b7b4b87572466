package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shuleni/backend/core/attendance"
)

func Test_teacherApi_markAttendance(t *testing.T) {
	app, deps := setup(t)

	adm := createAdministrator(t, deps, "Alice Admin", "alice@shuleni.cd")
	sch := createSchool(t, deps, "Bluebird Primary", adm.ID)
	tch := createTeacher(t, deps, "Tom Teacher", "tom@shuleni.cd", sch.ID)
	other := createTeacher(t, deps, "Olga Other", "olga@shuleni.cd", sch.ID)
	cls := createClass(t, deps, "Grade 1", adm.ID, tch.ID)
	clsOther := createClass(t, deps, "Grade 2", adm.ID, other.ID)
	st := createStudent(t, deps, "Sam Student", "A-001", cls.ID)
	stOther := createStudent(t, deps, "Sue Student", "A-002", clsOther.ID)

	tchToken := getToken(t, deps, tch.Account())
	admToken := getToken(t, deps, administratorAccount(adm))

	mark := func(token, studentID, status string) *http.Response {
		body := marchallObj(t, attendance.NewAttendance{StudentID: studentID, Status: status})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/mark", token, body)
		app.ServeHTTP(rec, req)
		return rec.Result()
	}

	t.Run("teacher marks own student", func(t *testing.T) {
		res := mark(tchToken, st.ID, "Present")
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("code = %v; want %v", res.StatusCode, http.StatusCreated)
		}
	})

	t.Run("second mark the same day conflicts", func(t *testing.T) {
		res := mark(tchToken, st.ID, "absent")
		if res.StatusCode != http.StatusConflict {
			t.Errorf("code = %v; want %v", res.StatusCode, http.StatusConflict)
		}
	})

	t.Run("student outside the class set reads as missing", func(t *testing.T) {
		res := mark(tchToken, stOther.ID, "present")
		if res.StatusCode != http.StatusNotFound {
			t.Errorf("code = %v; want %v", res.StatusCode, http.StatusNotFound)
		}
	})

	t.Run("only teachers mark", func(t *testing.T) {
		res := mark(admToken, st.ID, "present")
		if res.StatusCode != http.StatusForbidden {
			t.Errorf("code = %v; want %v", res.StatusCode, http.StatusForbidden)
		}
	})

	t.Run("missing status fails validation", func(t *testing.T) {
		res := mark(tchToken, st.ID, "")
		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", res.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("invalid token is unauthenticated", func(t *testing.T) {
		res := mark("lol.nope.token", st.ID, "present")
		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("code = %v; want %v", res.StatusCode, http.StatusUnauthorized)
		}
	})
}

func Test_teacherApi_reports(t *testing.T) {
	defer func() { attendance.NowFunc = time.Now }()

	app, deps := setup(t)

	adm := createAdministrator(t, deps, "Alice Admin", "alice@shuleni.cd")
	sch := createSchool(t, deps, "Bluebird Primary", adm.ID)
	tch := createTeacher(t, deps, "Tom Teacher", "tom@shuleni.cd", sch.ID)
	cls := createClass(t, deps, "Grade 1", adm.ID, tch.ID)
	st := createStudent(t, deps, "Sam Student", "A-001", cls.ID)

	tchToken := getToken(t, deps, tch.Account())
	admToken := getToken(t, deps, administratorAccount(adm))

	mark := func(t *testing.T, day time.Time, status string) {
		t.Helper()
		attendance.NowFunc = func() time.Time { return day }
		body := marchallObj(t, MarkRequest{Status: status})
		req, rec := newAuthRequest(http.MethodPost, "/v1/teacher/attendance/student/"+st.ID, tchToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("mark(%v, %q) code = %v; body %s", day, status, rec.Code, rec.Body.String())
		}
	}

	// 3 present, 1 absent in May; 1 absent in June
	mark(t, time.Date(2023, time.May, 1, 8, 0, 0, 0, time.UTC), "present")
	mark(t, time.Date(2023, time.May, 2, 8, 0, 0, 0, time.UTC), "PRESENT")
	mark(t, time.Date(2023, time.May, 3, 8, 0, 0, 0, time.UTC), " present ")
	mark(t, time.Date(2023, time.May, 4, 8, 0, 0, 0, time.UTC), "absent")
	mark(t, time.Date(2023, time.June, 1, 8, 0, 0, 0, time.UTC), "absent")

	studentReport := func(t *testing.T, token, query string) attendance.StudentReport {
		t.Helper()
		path := "/v1/teacher/attendance/student/" + st.ID + query
		if token == admToken {
			path = "/v1/administrator/attendance/student/" + st.ID + query
		}
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("report code = %v; body %s", rec.Code, rec.Body.String())
		}
		var rep attendance.StudentReport
		if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		return rep
	}

	t.Run("unfiltered report counts everything", func(t *testing.T) {
		rep := studentReport(t, tchToken, "")
		if rep.PresentCount != 3 || rep.AbsentCount != 2 || rep.TotalCount != 5 {
			t.Errorf("counts = %d/%d/%d; want 3/2/5", rep.PresentCount, rep.AbsentCount, rep.TotalCount)
		}
		if rep.Percentage != 60 {
			t.Errorf("percentage = %v; want 60", rep.Percentage)
		}
	})

	t.Run("month filter narrows", func(t *testing.T) {
		rep := studentReport(t, tchToken, "?month=5&year=2023")
		if rep.PresentCount != 3 || rep.TotalCount != 4 {
			t.Errorf("counts = %d/%d; want 3/4", rep.PresentCount, rep.TotalCount)
		}
		if rep.Percentage != 75 {
			t.Errorf("percentage = %v; want 75", rep.Percentage)
		}
	})

	t.Run("explicit range narrows the month further", func(t *testing.T) {
		rep := studentReport(t, tchToken, "?month=5&year=2023&start_date=2023-05-02&end_date=2023-05-04")
		if rep.PresentCount != 2 || rep.TotalCount != 3 {
			t.Errorf("counts = %d/%d; want 2/3", rep.PresentCount, rep.TotalCount)
		}
	})

	t.Run("explicit range cannot widen the month", func(t *testing.T) {
		rep := studentReport(t, tchToken, "?month=5&year=2023&end_date=2023-06-30")
		if rep.TotalCount != 4 {
			t.Errorf("total = %d; want 4", rep.TotalCount)
		}
	})

	t.Run("invalid month fails validation", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/attendance/student/"+st.ID+"?month=13", tchToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("administrator report matches", func(t *testing.T) {
		rep := studentReport(t, admToken, "?month=5&year=2023")
		if rep.Percentage != 75 {
			t.Errorf("percentage = %v; want 75", rep.Percentage)
		}
	})

	t.Run("school report aggregates per class", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/administrator/attendance/school?month=5&year=2023", admToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var rep attendance.SchoolReport
		if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if rep.SchoolID != sch.ID {
			t.Errorf("school_id = %q; want %q", rep.SchoolID, sch.ID)
		}
		if len(rep.Classes) != 1 || rep.Classes[0].ClassID != cls.ID {
			t.Fatalf("classes = %+v; want the single class", rep.Classes)
		}
		if rep.OverallPercentage != 75 {
			t.Errorf("overall_percentage = %v; want 75", rep.OverallPercentage)
		}
	})

	t.Run("report with no records is all zeros", func(t *testing.T) {
		rep := studentReport(t, tchToken, "?month=1&year=2020")
		if rep.TotalCount != 0 || rep.Percentage != 0 {
			t.Errorf("report = %+v; want zero counts and 0%%", rep)
		}
	})

	t.Run("class listing joins student names", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/attendance/class?month=5&year=2023", tchToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var classes []attendance.ClassAttendance
		if err := json.Unmarshal(rec.Body.Bytes(), &classes); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if len(classes) != 1 || len(classes[0].Records) != 4 {
			t.Fatalf("classes = %+v; want 1 class with 4 records", classes)
		}
		if classes[0].Records[0].StudentName != st.Name {
			t.Errorf("student_name = %q; want %q", classes[0].Records[0].StudentName, st.Name)
		}
	})

	t.Run("student export downloads a workbook", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/attendance/student/"+st.ID+"/export", tchToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
			t.Errorf("Content-Type = %q", ct)
		}
		if rec.Body.Len() == 0 {
			t.Error("empty workbook")
		}
	})
}

func Test_attendanceApi_listForPrincipal(t *testing.T) {
	defer func() { attendance.NowFunc = time.Now }()
	attendance.NowFunc = func() time.Time { return time.Date(2023, time.May, 1, 8, 0, 0, 0, time.UTC) }

	app, deps := setup(t)

	sa := createSuperAdmin(t, deps, "Root", "root@shuleni.cd")
	admA := createAdministrator(t, deps, "Alice Admin", "alice@shuleni.cd")
	admB := createAdministrator(t, deps, "Bob Admin", "bob@shuleni.cd")
	schA := createSchool(t, deps, "Bluebird Primary", admA.ID)
	schB := createSchool(t, deps, "Robin Secondary", admB.ID)
	tchA := createTeacher(t, deps, "Tom Teacher", "tom@shuleni.cd", schA.ID)
	tchB := createTeacher(t, deps, "Tina Teacher", "tina@shuleni.cd", schB.ID)
	clsA := createClass(t, deps, "Grade 1", admA.ID, tchA.ID)
	clsB := createClass(t, deps, "Grade 2", admB.ID, tchB.ID)
	stA := createStudent(t, deps, "Sam Student", "A-001", clsA.ID)
	stB := createStudent(t, deps, "Sue Student", "B-001", clsB.ID)

	tokens := map[string]string{
		"superadmin": getToken(t, deps, superAdminAccount(sa)),
		"adminA":     getToken(t, deps, administratorAccount(admA)),
		"teacherA":   getToken(t, deps, tchA.Account()),
	}

	mark := func(t *testing.T, token, studentID string) {
		t.Helper()
		body := marchallObj(t, attendance.NewAttendance{StudentID: studentID, Status: "present"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/mark", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("mark() code = %v; body %s", rec.Code, rec.Body.String())
		}
	}
	mark(t, getToken(t, deps, tchA.Account()), stA.ID)
	mark(t, getToken(t, deps, tchB.Account()), stB.ID)

	list := func(t *testing.T, token string, query ...string) []attendance.Attendance {
		t.Helper()
		path := "/v1/attendance"
		if len(query) > 0 {
			path += query[0]
		}
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("list() code = %v; body %s", rec.Code, rec.Body.String())
		}
		var rows []attendance.Attendance
		if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		return rows
	}

	if rows := list(t, tokens["superadmin"]); len(rows) != 2 {
		t.Errorf("superadmin sees %d rows; want 2", len(rows))
	}
	if rows := list(t, tokens["adminA"]); len(rows) != 1 || rows[0].StudentID != stA.ID {
		t.Errorf("administrator rows = %+v; want only their school's", rows)
	}
	if rows := list(t, tokens["teacherA"]); len(rows) != 1 || rows[0].StudentID != stA.ID {
		t.Errorf("teacher rows = %+v; want only their classes'", rows)
	}

	t.Run("query params narrow within the scope", func(t *testing.T) {
		if rows := list(t, tokens["superadmin"], "?student_id="+stB.ID); len(rows) != 1 || rows[0].StudentID != stB.ID {
			t.Errorf("student_id rows = %+v; want only stB's", rows)
		}
		if rows := list(t, tokens["superadmin"], "?class_id="+clsA.ID); len(rows) != 1 || rows[0].StudentID != stA.ID {
			t.Errorf("class_id rows = %+v; want only clsA's", rows)
		}
		if rows := list(t, tokens["superadmin"], "?school_id="+schB.ID); len(rows) != 1 || rows[0].StudentID != stB.ID {
			t.Errorf("school_id rows = %+v; want only schB's", rows)
		}
		// a teacher asking for another school's rows gets nothing, not more
		if rows := list(t, tokens["teacherA"], "?school_id="+schB.ID); len(rows) != 0 {
			t.Errorf("cross-scope rows = %+v; want none", rows)
		}
	})

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/attendance")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusUnauthorized)
		}
	})
}
