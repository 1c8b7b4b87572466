package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/shuleni/backend/core"
	"github.com/shuleni/backend/core/attendance"
	"github.com/shuleni/backend/core/principal"
	"github.com/shuleni/backend/core/school"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		AppConfig  *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		// SignalShutdown is called when a request fails with an error that
		// warrants a graceful shutdown (eg. loss of database connectivity).
		// When nil, the server feeds its own ShutdownSignal channel.
		SignalShutdown func()

		PrincipalSvc  *principal.Service
		SchoolSvc     *school.Service
		AttendanceSvc *attendance.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		opts       *Options
		app        *echo.Echo
		errCh      chan error
		shutdownCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:       opts,
		app:        echo.New(),
		errCh:      make(chan error, 1),
		shutdownCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	if opts.SignalShutdown == nil {
		opts.SignalShutdown = func() { s.shutdownCh <- syscall.SIGTERM }
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.AppConfig

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerAuthAPI(v1, s.opts.PrincipalSvc, conf, s.opts.Validate)
	registerSuperAdminAPI(v1, jwt, s.opts.PrincipalSvc, s.opts.SchoolSvc, s.opts.AttendanceSvc)
	registerAdministratorAPI(v1, jwt, s.opts.PrincipalSvc, s.opts.SchoolSvc, s.opts.AttendanceSvc)
	registerTeacherAPI(v1, jwt, s.opts.PrincipalSvc, s.opts.SchoolSvc, s.opts.AttendanceSvc, s.opts.Validate)
	registerAttendanceAPI(v1, jwt, s.opts.PrincipalSvc, s.opts.AttendanceSvc, s.opts.Validate)
}

func (s *server) Start() {
	s.errCh <- s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Errors() <-chan error { return s.errCh }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdownCh }

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shuleni API!")
}
