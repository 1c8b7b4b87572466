package principal

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/shuleni/backend/core"
)

var (
	// errors
	ErrNotFound             = errors.New("account not found")
	ErrEmailExists          = errors.New("an account with this email already exists")
	ErrAuthenticationFailed = errors.New("invalid email or password")
)

type (
	Repository interface {
		// Directory lookups span the three credential tables; the role selects
		// which one is consulted.
		GetAccountByEmail(ctx context.Context, role Role, email string) (Account, error)
		GetAccountByID(ctx context.Context, role Role, id string) (Account, error)
		SetAccountPassword(ctx context.Context, role Role, id string, hash []byte) error

		// CheckEmailUniqueness returns ErrEmailExists when another account of
		// the same role already owns the email.
		CheckEmailUniqueness(ctx context.Context, role Role, email string, excludedIDs ...string) error

		CreateSuperAdmin(ctx context.Context, sa SuperAdmin) (SuperAdmin, error)
		QueryAllSuperAdmins(ctx context.Context) ([]SuperAdmin, error)
		GetSuperAdminByID(ctx context.Context, id string) (SuperAdmin, error)
		UpdateSuperAdmin(ctx context.Context, sa SuperAdmin) (SuperAdmin, error)
		DeleteSuperAdminsByID(ctx context.Context, ids ...string) error

		CreateAdministrator(ctx context.Context, adm Administrator) (Administrator, error)
		QueryAllAdministrators(ctx context.Context) ([]Administrator, error)
		GetAdministratorByID(ctx context.Context, id string) (Administrator, error)
		UpdateAdministrator(ctx context.Context, adm Administrator) (Administrator, error)
		DeleteAdministratorsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		conf     *core.Config
		validate *validator.Validate
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		mailSvc:  mailSvc,
		conf:     conf,
		validate: validate,
	}
}

// Authenticate resolves the email across the credential tables in precedence
// order and checks the password against the first matching account. A bad
// email and a bad password fail the same way.
func (svc *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	email = core.CleanString(email, true /* lower */)
	for _, role := range LoginPrecedence {
		acct, err := svc.repo.GetAccountByEmail(ctx, role, email)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return Account{}, err
		}
		if err := acct.CheckPassword(password); err == nil {
			return acct, nil
		}
	}
	return Account{}, ErrAuthenticationFailed
}

// GetAccount re-resolves a previously issued identity against the credential
// store. Deleted accounts come back as ErrNotFound.
func (svc *Service) GetAccount(ctx context.Context, role Role, id string) (Account, error) {
	if !role.Valid() {
		return Account{}, ErrNotFound
	}
	return svc.repo.GetAccountByID(ctx, role, id)
}

// checkEmailUniqueness surfaces ErrEmailExists untouched so the API layer can
// render it as a conflict rather than a field error.
func (svc *Service) checkEmailUniqueness(ctx context.Context, role Role, email string, excludedIDs ...string) error {
	return svc.repo.CheckEmailUniqueness(ctx, role, email, excludedIDs...)
}

func (svc *Service) CreateSuperAdmin(ctx context.Context, nsa NewSuperAdmin) (SuperAdmin, error) {
	sa := SuperAdmin{
		Name:      nsa.Name,
		Email:     nsa.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := sa.SetPassword(nsa.Password); err != nil {
		return SuperAdmin{}, err
	}
	return svc.repo.CreateSuperAdmin(ctx, sa)
}

func (svc *Service) QueryAllSuperAdmins(ctx context.Context) ([]SuperAdmin, error) {
	return svc.repo.QueryAllSuperAdmins(ctx)
}

func (svc *Service) GetSuperAdminByID(ctx context.Context, id string) (SuperAdmin, error) {
	return svc.repo.GetSuperAdminByID(ctx, id)
}

// UpdateSuperAdmin patches an existing account. Empty fields are left
// untouched; the password is re-hashed only when a new one is provided.
func (svc *Service) UpdateSuperAdmin(ctx context.Context, id string, usa UpdateSuperAdmin) (SuperAdmin, error) {
	sa := SuperAdmin{
		ID:    id,
		Name:  usa.Name,
		Email: usa.Email,
	}
	if usa.Password != "" {
		if err := sa.SetPassword(usa.Password); err != nil {
			return SuperAdmin{}, err
		}
	}
	return svc.repo.UpdateSuperAdmin(ctx, sa)
}

func (svc *Service) DeleteSuperAdmins(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSuperAdminsByID(ctx, ids...)
}

func (svc *Service) CreateAdministrator(ctx context.Context, na NewAdministrator) (Administrator, error) {
	adm := Administrator{
		Name:      na.Name,
		Email:     na.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := adm.SetPassword(na.Password); err != nil {
		return Administrator{}, err
	}
	adm, err := svc.repo.CreateAdministrator(ctx, adm)
	if err != nil {
		return Administrator{}, err
	}
	svc.sendWelcomeEmail(adm.account())
	return adm, nil
}

func (svc *Service) QueryAllAdministrators(ctx context.Context) ([]Administrator, error) {
	return svc.repo.QueryAllAdministrators(ctx)
}

func (svc *Service) GetAdministratorByID(ctx context.Context, id string) (Administrator, error) {
	return svc.repo.GetAdministratorByID(ctx, id)
}

func (svc *Service) UpdateAdministrator(ctx context.Context, id string, ua UpdateAdministrator) (Administrator, error) {
	adm := Administrator{
		ID:    id,
		Name:  ua.Name,
		Email: ua.Email,
	}
	if ua.Password != "" {
		if err := adm.SetPassword(ua.Password); err != nil {
			return Administrator{}, err
		}
	}
	return svc.repo.UpdateAdministrator(ctx, adm)
}

func (svc *Service) DeleteAdministrators(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAdministratorsByID(ctx, ids...)
}

// RequestPasswordReset emails a signed reset link to the account owning the
// email, whatever its role. The link embeds an opaque UID and a one-time
// token; both must come back on confirmation.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = core.CleanString(email, true /* lower */)

	var acct Account
	var found bool
	for _, role := range LoginPrecedence {
		a, err := svc.repo.GetAccountByEmail(ctx, role, email)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		acct, found = a, true
		break
	}
	if !found {
		return ErrNotFound
	}

	token, err := svc.makeToken(acct)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/password-reset?uid=%s&token=%s", svc.conf.FrontendBaseURL, EncodeUID(acct), token)
	body := fmt.Sprintf(
		"Hi %s,\n\nYou requested a password reset for your %s account.\n"+
			"Follow the link below to set a new password:\n\n%s\n\n"+
			"If you did not request this, you can safely ignore this email.",
		acct.Name, svc.conf.AppName, url,
	)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: acct.Name, Address: acct.Email}},
		Subject: fmt.Sprintf("%s - Password Reset", svc.conf.AppName),
		BodyStr: body,
	})
	return nil
}

// ResetPassword confirms a reset: the UID must decode to a live account, the
// token must verify against it, and the new password must pass policy.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetAccountPassword) (Account, error) {
	role, id, err := decodeUID(rp.UID)
	if err != nil {
		return Account{}, core.NewValidationError(errInvalidToken)
	}
	acct, err := svc.repo.GetAccountByID(ctx, role, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, core.NewValidationError(errInvalidToken)
		}
		return Account{}, err
	}
	if err := svc.verifyToken(acct, rp.Token); err != nil {
		return Account{}, core.NewValidationError(err)
	}
	if err := ValidatePassword(rp.Password, acct.Name, acct.Email); err != nil {
		return Account{}, err
	}
	hash, err := HashPassword(rp.Password)
	if err != nil {
		return Account{}, err
	}
	if err := svc.repo.SetAccountPassword(ctx, acct.Role, acct.ID, hash); err != nil {
		return Account{}, err
	}
	acct.PasswordHash = hash
	return acct, nil
}

func (svc *Service) sendWelcomeEmail(acct Account) {
	SendWelcomeEmail(svc.mailSvc, svc.conf, acct)
}

// SendWelcomeEmail notifies a freshly created account, whatever package
// created it.
func SendWelcomeEmail(mailSvc core.EmailService, conf *core.Config, acct Account) {
	body := fmt.Sprintf(
		"Hi %s,\n\nAn account has been created for you on %s.\n"+
			"Sign in at %s with this email address.",
		acct.Name, conf.AppName, conf.FrontendBaseURL,
	)
	mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: acct.Name, Address: acct.Email}},
		Subject: fmt.Sprintf("Welcome to %s", conf.AppName),
		BodyStr: body,
	})
}
