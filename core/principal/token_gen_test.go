package principal

import (
	"testing"
	"time"

	"github.com/shuleni/backend/core"
)

func TestMakeVerifyToken(t *testing.T) {
	conf := &core.Config{SecretKey: "secret"}
	conf.Server.PasswordResetTimeoutDelta = 3 * 24 * time.Hour
	svc := NewService(nil, nil, conf, nil)

	acct := Account{
		ID:        "8a7b9c5e-2f64-4a8e-9a1f-0b2c3d4e5f60",
		Role:      RoleAdministrator,
		Name:      "T",
		Email:     "t@test.test",
		CreatedAt: time.Now(),
	}
	hash, err := HashPassword("pwd")
	if err != nil {
		t.Fatal(err)
	}
	acct.PasswordHash = hash

	validToken, err := svc.makeToken(acct)
	if err != nil {
		t.Fatal(err)
	}

	// generate an expired token
	dayLate := conf.Server.PasswordResetTimeoutDelta + (24 * time.Hour)
	NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := svc.makeToken(acct)
	if err != nil {
		t.Fatal(err)
	}
	NowFunc = time.Now // reset

	tests := []struct {
		name    string
		acct    Account
		token   string
		wantErr error
	}{
		{name: "no token", acct: acct, wantErr: errInvalidToken},
		{name: "invalid parts len", acct: acct, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", acct: acct, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", acct: acct, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", acct: acct, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", acct: acct, token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", acct: acct, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.verifyToken(tt.acct, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	acct := Account{ID: "8a7b9c5e-2f64-4a8e-9a1f-0b2c3d4e5f60", Role: RoleTeacher}

	role, id, err := decodeUID(EncodeUID(acct))
	if err != nil {
		t.Fatal(err)
	}
	if role != acct.Role || id != acct.ID {
		t.Errorf("decodeUID() = (%v, %v), want (%v, %v)", role, id, acct.Role, acct.ID)
	}

	if _, _, err := decodeUID("not-base64!!"); err == nil {
		t.Error("decodeUID() expected error on invalid input")
	}
}
