package echoapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/shuleni/backend/core/principal"
)

func Test_authApi_login(t *testing.T) {
	app, deps := setup(t)

	sa := createSuperAdmin(t, deps, "Root", "root@shuleni.cd")
	adm := createAdministrator(t, deps, "Alice Admin", "alice@shuleni.cd")
	sch := createSchool(t, deps, "Bluebird Primary", adm.ID)
	createTeacher(t, deps, "Tom Teacher", "tom@shuleni.cd", sch.ID)

	// same email exists both as administrator and teacher; login must resolve
	// to the administrator
	createAdministrator(t, deps, "Shared", "shared@shuleni.cd")
	createTeacher(t, deps, "Shared", "shared@shuleni.cd", sch.ID)

	login := func(t *testing.T, username, password string) *http.Response {
		form := make(url.Values)
		form.Set("username", username)
		form.Set("password", password)
		req, rec := newRequest(http.MethodPost, "/v1/auth/login", []byte(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		app.ServeHTTP(rec, req)
		return rec.Result()
	}

	decode := func(t *testing.T, res *http.Response) LoginResponse {
		t.Helper()
		var data LoginResponse
		if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		return data
	}

	t.Run("superadmin login ok", func(t *testing.T) {
		res := login(t, sa.Email, "Supersecret1!")
		if res.StatusCode != http.StatusOK {
			t.Fatalf("code = %v; want %v", res.StatusCode, http.StatusOK)
		}
		data := decode(t, res)
		if data.AccessToken == "" {
			t.Error("empty access_token")
		}
		if data.TokenType != "bearer" {
			t.Errorf("token_type = %q; want %q", data.TokenType, "bearer")
		}
		if data.Role != principal.RoleSuperAdmin {
			t.Errorf("role = %q; want %q", data.Role, principal.RoleSuperAdmin)
		}
		if data.Email != sa.Email {
			t.Errorf("email = %q; want %q", data.Email, sa.Email)
		}
	})

	t.Run("email is case-insensitive", func(t *testing.T) {
		res := login(t, strings.ToUpper(adm.Email), "Supersecret1!")
		if res.StatusCode != http.StatusOK {
			t.Fatalf("code = %v; want %v", res.StatusCode, http.StatusOK)
		}
		if data := decode(t, res); data.Role != principal.RoleAdministrator {
			t.Errorf("role = %q; want %q", data.Role, principal.RoleAdministrator)
		}
	})

	t.Run("precedence resolves administrator before teacher", func(t *testing.T) {
		res := login(t, "shared@shuleni.cd", "Supersecret1!")
		if res.StatusCode != http.StatusOK {
			t.Fatalf("code = %v; want %v", res.StatusCode, http.StatusOK)
		}
		if data := decode(t, res); data.Role != principal.RoleAdministrator {
			t.Errorf("role = %q; want %q", data.Role, principal.RoleAdministrator)
		}
	})

	t.Run("wrong password fails as unauthenticated", func(t *testing.T) {
		res := login(t, sa.Email, "nope")
		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("code = %v; want %v", res.StatusCode, http.StatusUnauthorized)
		}
	})

	t.Run("unknown email fails the same way", func(t *testing.T) {
		res := login(t, "ghost@shuleni.cd", "Supersecret1!")
		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("code = %v; want %v", res.StatusCode, http.StatusUnauthorized)
		}
	})

	t.Run("missing fields fail validation", func(t *testing.T) {
		res := login(t, "", "")
		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", res.StatusCode, http.StatusBadRequest)
		}
	})
}

func Test_authApi_resetPassword(t *testing.T) {
	app, deps := setup(t)
	createAdministrator(t, deps, "Alice Admin", "alice@shuleni.cd")

	tests := []httpTest{
		{
			name: "known email gets the generic response", body: marchallObj(t, PasswordResetRequest{Email: "alice@shuleni.cd"}),
			wantCode: http.StatusOK,
		},
		{
			name: "unknown email gets the same response", body: marchallObj(t, PasswordResetRequest{Email: "ghost@shuleni.cd"}),
			wantCode: http.StatusOK,
		},
		{
			name: "invalid email fails validation", body: marchallObj(t, PasswordResetRequest{Email: "lol"}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
