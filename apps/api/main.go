package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/crreddy/polysis/apps/api/echo"
	"github.com/crreddy/polysis/apps/shared"
	"github.com/crreddy/polysis/core"
	emailsvc "github.com/crreddy/polysis/services/email"
	"github.com/crreddy/polysis/services/filestore"
	"github.com/crreddy/polysis/services/jobs"
	logsvc "github.com/crreddy/polysis/services/logger"
	"github.com/crreddy/polysis/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	validate, translator := shared.NewValidator()

	// set up DB
	dbCtx, dbCancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	store, err := database.Open(dbCtx, conf, dbLogger, shared.Indexes(validate))
	dbCancel()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = store.Close(context.Background()); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up file storage
	var files core.FileStore
	if conf.Storage.Bucket == "" {
		logger.Warn("no storage bucket configured: uploads are kept in memory")
		files = filestore.NewMemoryStore()
	} else if files, err = filestore.NewS3Store(context.Background(), conf.Storage, logger.With("component", "files")); err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	// set up services
	mailSvc := emailsvc.New(conf, logger.With("component", "mail"))
	svcs := shared.NewServices(store, mailSvc, validate, conf)
	otpLimiter := echoapi.NewRateLimiter(conf.RateLimit.OTPPerMinute, conf.RateLimit.Burst)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	jobsLogger := logger.With("component", "jobs")
	scheduler := jobs.NewScheduler(jobsLogger)
	if err = jobs.AddMaintenanceJobs(scheduler, svcs.Announcement, svcs.Auth, otpLimiter, jobsLogger); err != nil {
		logger.Fatal(fmt.Sprintf("scheduling jobs: %v", err), err)
	}
	scheduler.Start()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			Translator:      translator,
			AuthSvc:         svcs.Auth,
			StudentSvc:      svcs.Student,
			BranchSvc:       svcs.Branch,
			MaterialSvc:     svcs.Material,
			PaperSvc:        svcs.Paper,
			AnnouncementSvc: svcs.Announcement,
			BannerSvc:       svcs.Banner,
			CarouselSvc:     svcs.Carousel,
			Files:           files,
			OTPLimiter:      otpLimiter,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		scheduler.Stop(ctx)

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
