package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/shuleni/backend/core"
	"github.com/shuleni/backend/core/attendance"
	"github.com/shuleni/backend/core/principal"
	"github.com/shuleni/backend/core/school"
	emailsvc "github.com/shuleni/backend/services/email"
	inmemdb "github.com/shuleni/backend/storage/database/inmem"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type testDeps struct {
	conf      *core.Config
	prinSvc   *principal.Service
	schoolSvc *school.Service
	attSvc    *attendance.Service
}

func setup(t *testing.T) (Server, *testDeps) {
	t.Helper()

	conf := core.NewTestConfig()

	validate := validator.New()
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	principal.RegisterValidators(validate, translator)
	school.RegisterValidators(validate, translator)

	db := inmemdb.NewDB()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	prinSvc := principal.NewService(inmemdb.NewPrincipalRepository(db), mailSvc, conf, validate)
	schoolSvc := school.NewService(inmemdb.NewSchoolRepository(db), mailSvc, conf, validate)
	attSvc := attendance.NewService(inmemdb.NewAttendanceRepository(db), schoolSvc)

	deps := &testDeps{
		conf:      conf,
		prinSvc:   prinSvc,
		schoolSvc: schoolSvc,
		attSvc:    attSvc,
	}
	app := NewServer(&Options{
		DisableReqLogs: true,
		AppConfig:      conf,
		Logger:         testLogger{t},
		Validate:       validate,
		Translator:     translator,
		SignalShutdown: func() {},
		PrincipalSvc:   prinSvc,
		SchoolSvc:      schoolSvc,
		AttendanceSvc:  attSvc,
	})
	return app, deps
}

type testLogger struct{ t *testing.T }

func (l testLogger) Debug(msg string, args ...interface{}) { l.t.Logf("DEBUG: %s %v", msg, args) }
func (l testLogger) Info(msg string, args ...interface{})  { l.t.Logf("INFO: %s %v", msg, args) }
func (l testLogger) Warn(msg string, args ...interface{})  { l.t.Logf("WARN: %s %v", msg, args) }
func (l testLogger) Error(msg string, args ...interface{}) { l.t.Logf("ERROR: %s %v", msg, args) }
func (l testLogger) Fatal(msg string, args ...interface{}) { l.t.Fatalf("FATAL: %s %v", msg, args) }

// Fixtures

func createSuperAdmin(t *testing.T, deps *testDeps, name, email string) principal.SuperAdmin {
	t.Helper()
	sa, err := deps.prinSvc.CreateSuperAdmin(context.Background(), principal.NewSuperAdmin{
		Name: name, Email: email, Password: "Supersecret1!",
	})
	if err != nil {
		t.Fatalf("createSuperAdmin(): %v", err)
	}
	return sa
}

func createAdministrator(t *testing.T, deps *testDeps, name, email string) principal.Administrator {
	t.Helper()
	adm, err := deps.prinSvc.CreateAdministrator(context.Background(), principal.NewAdministrator{
		Name: name, Email: email, Password: "Supersecret1!",
	})
	if err != nil {
		t.Fatalf("createAdministrator(): %v", err)
	}
	return adm
}

func createSchool(t *testing.T, deps *testDeps, name, adminID string) school.School {
	t.Helper()
	sch, err := deps.schoolSvc.CreateSchool(context.Background(), school.NewSchool{
		Name: name, Address: null.StringFrom("1 Main St"), AdministratorID: adminID,
	})
	if err != nil {
		t.Fatalf("createSchool(): %v", err)
	}
	return sch
}

func createTeacher(t *testing.T, deps *testDeps, name, email, schoolID string) school.Teacher {
	t.Helper()
	tch, err := deps.schoolSvc.CreateTeacher(context.Background(), school.NewTeacher{
		Name: name, Email: email, Password: "Supersecret1!", SchoolID: schoolID,
	})
	if err != nil {
		t.Fatalf("createTeacher(): %v", err)
	}
	return tch
}

func createClass(t *testing.T, deps *testDeps, name, adminID, teacherID string) school.Class {
	t.Helper()
	cls, err := deps.schoolSvc.CreateClassForAdmin(context.Background(), adminID, school.NewClass{
		Name: name, TeacherID: teacherID,
	})
	if err != nil {
		t.Fatalf("createClass(): %v", err)
	}
	return cls
}

func createStudent(t *testing.T, deps *testDeps, name, rollNo, classID string) school.Student {
	t.Helper()
	st, err := deps.schoolSvc.CreateStudent(context.Background(), school.NewStudent{
		Name: name, RollNo: rollNo, ClassID: classID,
	})
	if err != nil {
		t.Fatalf("createStudent(): %v", err)
	}
	return st
}

func superAdminAccount(sa principal.SuperAdmin) principal.Account {
	return principal.Account{ID: sa.ID, Role: principal.RoleSuperAdmin, Name: sa.Name, Email: sa.Email}
}

func administratorAccount(adm principal.Administrator) principal.Account {
	return principal.Account{ID: adm.ID, Role: principal.RoleAdministrator, Name: adm.Name, Email: adm.Email}
}

func getToken(t *testing.T, deps *testDeps, acct principal.Account) string {
	t.Helper()
	token, err := GenerateToken(GetAccountClaims(acct, deps.conf), deps.conf)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

// Request plumbing

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
