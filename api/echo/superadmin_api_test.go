package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shuleni/backend/core/principal"
	"github.com/shuleni/backend/core/school"
)

func Test_superAdminApi_administratorCrud(t *testing.T) {
	app, deps := setup(t)

	sa := createSuperAdmin(t, deps, "Root", "root@shuleni.cd")
	adm := createAdministrator(t, deps, "Alice Admin", "alice@shuleni.cd")
	sch := createSchool(t, deps, "Bluebird Primary", adm.ID)
	tch := createTeacher(t, deps, "Tom Teacher", "tom@shuleni.cd", sch.ID)

	saToken := getToken(t, deps, superAdminAccount(sa))
	admToken := getToken(t, deps, administratorAccount(adm))
	tchToken := getToken(t, deps, tch.Account())

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodGet, path: "/v1/superadmin/administrators",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Superadmin required (administrator)", method: http.MethodGet, path: "/v1/superadmin/administrators",
			token: admToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Superadmin required (teacher)", method: http.MethodGet, path: "/v1/superadmin/administrators",
			token: tchToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Get all", method: http.MethodGet, path: "/v1/superadmin/administrators",
			token: saToken, wantCode: http.StatusOK, wantData: marchallList(t, adm),
		},
		{
			name: "Retrieve", method: http.MethodGet, path: "/v1/superadmin/administrators/" + adm.ID,
			token: saToken, wantCode: http.StatusOK, wantData: marchallObj(t, adm),
		},
		{
			name: "Retrieve unknown", method: http.MethodGet, path: "/v1/superadmin/administrators/nope",
			token: saToken, wantCode: http.StatusNotFound,
		},
		{
			name:   "Create",
			method: http.MethodPost, path: "/v1/superadmin/administrators", token: saToken,
			body:     marchallObj(t, principal.NewAdministrator{Name: "Bob Admin", Email: "bob@shuleni.cd", Password: "Supersecret1!"}),
			wantCode: http.StatusCreated,
		},
		{
			name:   "Create duplicate email conflicts",
			method: http.MethodPost, path: "/v1/superadmin/administrators", token: saToken,
			body:     marchallObj(t, principal.NewAdministrator{Name: "Imposter", Email: "alice@shuleni.cd", Password: "Supersecret1!"}),
			wantCode: http.StatusConflict,
		},
		{
			name:   "Create missing fields fails validation",
			method: http.MethodPost, path: "/v1/superadmin/administrators", token: saToken,
			body:     marchallObj(t, principal.NewAdministrator{Name: "No Email"}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Patch update leaves absent fields intact", func(t *testing.T) {
		body := marchallObj(t, principal.UpdateAdministrator{Name: "Alice Renamed"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/superadmin/administrators/"+adm.ID, saToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated principal.Administrator
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if updated.Name != "Alice Renamed" {
			t.Errorf("name = %q; want %q", updated.Name, "Alice Renamed")
		}
		if updated.Email != adm.Email {
			t.Errorf("email = %q; want untouched %q", updated.Email, adm.Email)
		}

		// the old password still works
		if _, err := deps.prinSvc.Authenticate(context.Background(), adm.Email, "Supersecret1!"); err != nil {
			t.Errorf("Authenticate() after patch: %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		victim := createAdministrator(t, deps, "Victim", "victim@shuleni.cd")
		req, rec := newAuthRequest(http.MethodDelete, "/v1/superadmin/administrators/"+victim.ID, saToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusNoContent)
		}

		// deleted administrators cannot use old tokens: fail-closed lookup
		staleToken := getToken(t, deps, administratorAccount(victim))
		req, rec = newAuthRequest(http.MethodGet, "/v1/administrator/teachers", staleToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("stale token code = %v; want %v", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("Superadmins cannot delete themselves", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/superadmin/"+sa.ID, saToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})
}

func Test_superAdminApi_schoolCrud(t *testing.T) {
	app, deps := setup(t)

	sa := createSuperAdmin(t, deps, "Root", "root@shuleni.cd")
	adm := createAdministrator(t, deps, "Alice Admin", "alice@shuleni.cd")
	saToken := getToken(t, deps, superAdminAccount(sa))

	t.Run("Create school", func(t *testing.T) {
		body := marchallObj(t, school.NewSchool{Name: "Bluebird Primary", AdministratorID: adm.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/superadmin/schools", saToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
	})

	t.Run("Create school with unknown administrator fails", func(t *testing.T) {
		body := marchallObj(t, school.NewSchool{Name: "Ghost School", AdministratorID: "nope"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/superadmin/schools", saToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("Duplicate teacher email conflicts across schools", func(t *testing.T) {
		sch, err := deps.schoolSvc.SchoolForAdmin(context.Background(), adm.ID)
		if err != nil {
			t.Fatalf("SchoolForAdmin(): %v", err)
		}
		adm2 := createAdministrator(t, deps, "Bob Admin", "bob@shuleni.cd")
		sch2 := createSchool(t, deps, "Robin Secondary", adm2.ID)
		createTeacher(t, deps, "Tom Teacher", "tom@shuleni.cd", sch.ID)

		body := marchallObj(t, school.NewTeacher{Name: "Tom Clone", Email: "tom@shuleni.cd", Password: "Supersecret1!", SchoolID: sch2.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/superadmin/teachers", saToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusConflict, rec.Body.String())
		}
	})
}
