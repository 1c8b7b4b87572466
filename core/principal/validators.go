package principal

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/shuleni/backend/core"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to account attributes"

	pwdTexts = map[string]string{
		pwdMinLenTag:    pwdMinLenText,
		pwdNoSpaceTag:   pwdNoSpaceText,
		pwdNotAllNumTag: pwdNotAllNumText,
		pwdAttrSimTag:   pwdAttrSimText,
	}
)

// RegisterValidators hooks the account struct validations and their
// translations onto the shared validator instance.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(accountStructValidation, NewSuperAdmin{}, UpdateSuperAdmin{}, NewAdministrator{}, UpdateAdministrator{})
	for tag, text := range pwdTexts {
		core.RegisterCustomTranslation(validate, translator, tag, text)
	}
}

// accountStructValidation applies the password policy whenever a password is
// being set. Updates with an empty password skip it.
func accountStructValidation(sl validator.StructLevel) {
	switch acct := sl.Current().Interface().(type) {
	case NewSuperAdmin:
		checkPassword(sl, acct.Password, acct.Name, acct.Email)
	case UpdateSuperAdmin:
		if acct.Password != "" {
			checkPassword(sl, acct.Password, acct.Name, acct.Email)
		}
	case NewAdministrator:
		checkPassword(sl, acct.Password, acct.Name, acct.Email)
	case UpdateAdministrator:
		if acct.Password != "" {
			checkPassword(sl, acct.Password, acct.Name, acct.Email)
		}
	}
}

func checkPassword(sl validator.StructLevel, pwd string, attrs ...string) {
	if tag := failedPasswordTag(pwd, attrs...); tag != "" {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
}

// ValidatePasswordStruct applies the password policy inside a struct-level
// validation registered by another package.
func ValidatePasswordStruct(sl validator.StructLevel, pwd string, attrs ...string) {
	checkPassword(sl, pwd, attrs...)
}

// ValidatePassword applies the password policy outside struct validation
// (password reset confirmation, bulk account imports).
func ValidatePassword(pwd string, attrs ...string) error {
	if tag := failedPasswordTag(pwd, attrs...); tag != "" {
		err := errors.New(pwdTexts[tag])
		return core.NewValidationError(err, core.FieldError{Field: "password", Error: err.Error()})
	}
	return nil
}

// failedPasswordTag returns the tag of the first policy rule the password
// breaks, or "" when it passes:
// - minLen: 8
// - no whitespace
// - not all numeric
// - no account attrs similarity
func failedPasswordTag(pwd string, attrs ...string) string {
	pwdLen := len(pwd)
	if pwdLen < pwdMinLen {
		return pwdMinLenTag
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == pwdLen {
		return pwdNotAllNumTag
	}

	getRatio := func(pass, attr string) float64 {
		if attr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(strings.ToLower(attr), "")).QuickRatio()
	}
	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if getRatio(lpwd, attr) >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}
	return ""
}
