package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/announcement"
	"github.com/crreddy/polysis/core/auth"
	"github.com/crreddy/polysis/core/banner"
	"github.com/crreddy/polysis/core/branch"
	"github.com/crreddy/polysis/core/material"
	"github.com/crreddy/polysis/core/paper"
	"github.com/crreddy/polysis/core/student"
	"github.com/crreddy/polysis/services/metrics"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Translator     ut.Translator
		DisableReqLogs bool

		AuthSvc         *auth.Service
		StudentSvc      *student.Service
		BranchSvc       *branch.Service
		MaterialSvc     *material.Service
		PaperSvc        *paper.Service
		AnnouncementSvc *announcement.Service
		BannerSvc       *banner.Service
		CarouselSvc     *banner.Service
		Files           core.FileStore
		OTPLimiter      *RateLimiter
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(ctx context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		http     *http.Server
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	if deps.OTPLimiter == nil {
		deps.OTPLimiter = NewRateLimiter(deps.Conf.RateLimit.OTPPerMinute, deps.Conf.RateLimit.Burst)
	}

	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.http = &http.Server{
		Addr:         deps.Conf.ServerAddress(),
		ReadTimeout:  deps.Conf.Server.ReadTimeout,
		WriteTimeout: deps.Conf.Server.WriteTimeout,
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	s.app.Use(metricsMiddleware)
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(corsConfig(conf)))

	s.app.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := s.app.Group("/api")
	api.GET("/health", health)

	authn := authMiddleware(s.deps.AuthSvc.Tokens())
	admin := requireRole(auth.RoleClaimAdmin)
	upload := uploadLimitMiddleware(conf.MaxUploadSize)

	registerAuthAPI(api.Group("/auth"), s.deps.AuthSvc, s.deps.OTPLimiter, conf)

	entities := api.Group("/entities")
	registerEntityAPI(entities.Group("/student"), s.deps.StudentSvc.Service, authn, admin)
	registerEntityAPI(entities.Group("/branch"), s.deps.BranchSvc.Service, authn, admin)
	registerEntityAPI(entities.Group("/material"), s.deps.MaterialSvc.Service, authn, admin)
	registerEntityAPI(entities.Group("/question-paper"), s.deps.PaperSvc.Service, authn, admin)
	registerEntityAPI(entities.Group("/announcement"), s.deps.AnnouncementSvc.Service, authn, admin)
	registerEntityAPI(entities.Group("/carousel"), s.deps.CarouselSvc.Service, authn, admin)

	files := fileHandler{store: s.deps.Files, maxSize: conf.MaxUploadSize, logger: s.deps.Logger}
	registerStudentAPI(api.Group("/students"), s.deps.StudentSvc, files, authn, upload)
	registerBranchAPI(api.Group("/branches"), s.deps.BranchSvc, authn)
	registerMaterialAPI(api.Group("/materials"), s.deps.MaterialSvc, files, authn, upload)
	registerPaperAPI(api.Group("/question-papers"), s.deps.PaperSvc, files, authn, upload)
	registerAnnouncementAPI(api.Group("/announcements"), s.deps.AnnouncementSvc, files, authn, upload)
	registerBannerAPI(api.Group("/banners"), s.deps.BannerSvc, files, authn, upload)
	registerCarouselAPI(api.Group("/carousel"), s.deps.CarouselSvc, files, authn, upload)
}

func corsConfig(conf *core.Config) middleware.CORSConfig {
	origins := conf.CORSOrigins
	if !conf.IsProd() || len(origins) == 0 {
		origins = []string{"*"} // the request origin is echoed back since credentials are allowed
	}
	return middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}
}

// Start listens until the server is shut down; failures are sent to Errors().
func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	s.deps.Logger.Info("API listening on " + s.http.Addr)
	if err := s.app.StartServer(s.http); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error { return s.errors }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "API is running", "timestamp": time.Now().UTC()})
}
