package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/shuleni/backend/core"
	"github.com/shuleni/backend/core/principal"
)

var (
	jwtContextKey       = "accountToken"
	contextPrincipalKey = "principal"
)

// newJWTConfig is the JWT auth middleware config.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Role  principal.Role `json:"role,omitempty"`
	Name  string         `json:"name,omitempty"`
	Email string         `json:"email,omitempty"`
}

func GetAccountClaims(acct principal.Account, conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   acct.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Role:  acct.Role,
		Name:  acct.Name,
		Email: acct.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the account Claims.
func GenerateToken(claims *Claims, conf *core.Config) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextPrincipal re-resolves the token's subject against the credential
// store on every request; a token whose account has since been deleted is as
// good as no token.
func getContextPrincipal(ctx echo.Context, svc *principal.Service) (principal.Principal, error) {
	if prin, ok := ctx.Get(contextPrincipalKey).(principal.Principal); ok {
		return prin, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return principal.Principal{}, err
	}

	acct, err := svc.GetAccount(ctx.Request().Context(), claims.Role, claims.Subject)
	if err != nil {
		if errors.Is(err, principal.ErrNotFound) {
			return principal.Principal{}, errUnauthorized
		}
		return principal.Principal{}, errors.Wrap(err, "finding account by ID")
	}
	prin := acct.Principal()
	ctx.Set(contextPrincipalKey, prin)
	return prin, nil
}
