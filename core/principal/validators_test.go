package principal

import "testing"

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		attrs   []string
		wantTag string
	}{
		{name: "too short", pwd: "secret", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "super secret", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "similar to email", pwd: "john.doe@test.test", attrs: []string{"John Doe", "john.doe@test.test"}, wantTag: pwdAttrSimTag},
		{name: "similar to name", pwd: "johnndoe", attrs: []string{"John Doe"}, wantTag: pwdAttrSimTag},
		{name: "ok", pwd: "LeTme1n.not-obvious", attrs: []string{"John Doe", "john.doe@test.test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tag := failedPasswordTag(tt.pwd, tt.attrs...); tag != tt.wantTag {
				t.Errorf("failedPasswordTag() = %q, want %q", tag, tt.wantTag)
			}
		})
	}
}
