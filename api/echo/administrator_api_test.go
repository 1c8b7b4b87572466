package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shuleni/backend/core/school"
)

func Test_administratorApi_scoping(t *testing.T) {
	app, deps := setup(t)

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

	aToken := getToken(t, deps, administratorAccount(admA))

	// an administrator without a school is inert
	inert := createAdministrator(t, deps, "Carol Admin", "carol@shuleni.cd")
	inertToken := getToken(t, deps, administratorAccount(inert))

	tests := []httpTest{
		{
			name: "Own teachers only", method: http.MethodGet, path: "/v1/administrator/teachers",
			token: aToken, wantCode: http.StatusOK, wantData: marchallList(t, tchA),
		},
		{
			name: "Own classes only", method: http.MethodGet, path: "/v1/administrator/classes",
			token: aToken, wantCode: http.StatusOK, wantData: marchallList(t, clsA),
		},
		{
			name: "Own students only", method: http.MethodGet, path: "/v1/administrator/students",
			token: aToken, wantCode: http.StatusOK, wantData: marchallList(t, stA),
		},
		{
			name: "Own school", method: http.MethodGet, path: "/v1/administrator/school",
			token: aToken, wantCode: http.StatusOK, wantData: marchallObj(t, schA),
		},
		{
			name: "Other school's teacher reads as missing", method: http.MethodGet, path: "/v1/administrator/teachers/" + tchB.ID,
			token: aToken, wantCode: http.StatusNotFound,
		},
		{
			name: "Other school's class reads as missing", method: http.MethodGet, path: "/v1/administrator/classes/" + clsB.ID,
			token: aToken, wantCode: http.StatusNotFound,
		},
		{
			name: "Other school's student reads as missing", method: http.MethodGet, path: "/v1/administrator/students/" + stB.ID,
			token: aToken, wantCode: http.StatusNotFound,
		},
		{
			name: "Other school's teacher cannot be updated", method: http.MethodPut, path: "/v1/administrator/teachers/" + tchB.ID,
			token: aToken, body: marchallObj(t, school.UpdateTeacher{Name: "Hijacked"}), wantCode: http.StatusNotFound,
		},
		{
			name: "Other school's student cannot be deleted", method: http.MethodDelete, path: "/v1/administrator/students/" + stB.ID,
			token: aToken, wantCode: http.StatusNotFound,
		},
		{
			name:   "Class with other school's teacher reads as missing",
			method: http.MethodPost, path: "/v1/administrator/classes", token: aToken,
			body: marchallObj(t, school.NewClass{Name: "Grade X", TeacherID: tchB.ID}), wantCode: http.StatusNotFound,
		},
		{
			name: "Inert administrator has no school", method: http.MethodGet, path: "/v1/administrator/school",
			token: inertToken, wantCode: http.StatusNotFound,
		},
		{
			name: "Inert administrator lists nothing", method: http.MethodGet, path: "/v1/administrator/teachers",
			token: inertToken, wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Scoped create forces the caller's school", func(t *testing.T) {
		body := marchallObj(t, school.NewTeacher{
			Name: "New Teacher", Email: "new@shuleni.cd", Password: "Supersecret1!",
			SchoolID: schB.ID, // ignored
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/administrator/teachers", aToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var created school.Teacher
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if created.SchoolID != schA.ID {
			t.Errorf("school_id = %q; want the caller's %q", created.SchoolID, schA.ID)
		}
	})

	t.Run("Duplicate teacher email conflicts", func(t *testing.T) {
		body := marchallObj(t, school.NewTeacher{
			Name: "Tina Clone", Email: tchB.Email, Password: "Supersecret1!",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/administrator/teachers", aToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusConflict, rec.Body.String())
		}
	})

	t.Run("Student update re-derives the school from the class", func(t *testing.T) {
		tch2 := createTeacher(t, deps, "Second Teacher", "second@shuleni.cd", schA.ID)
		cls2 := createClass(t, deps, "Grade 3", admA.ID, tch2.ID)

		body := marchallObj(t, school.UpdateStudent{ClassID: cls2.ID})
		req, rec := newAuthRequest(http.MethodPut, "/v1/administrator/students/"+stA.ID, aToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated school.Student
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if updated.ClassID != cls2.ID {
			t.Errorf("class_id = %q; want %q", updated.ClassID, cls2.ID)
		}
		if updated.SchoolID != schA.ID {
			t.Errorf("school_id = %q; want %q", updated.SchoolID, schA.ID)
		}
		if updated.Name != stA.Name {
			t.Errorf("name = %q; want untouched %q", updated.Name, stA.Name)
		}

		// moving a student into another school's class reads as missing
		body = marchallObj(t, school.UpdateStudent{ClassID: clsB.ID})
		req, rec = newAuthRequest(http.MethodPut, "/v1/administrator/students/"+stA.ID, aToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusNotFound)
		}
	})
}
