package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/drivedrcc-eng/central-senai-api/api/swagger"
	"github.com/drivedrcc-eng/central-senai-api/internal/handler"
	"github.com/drivedrcc-eng/central-senai-api/internal/middleware"
	"github.com/drivedrcc-eng/central-senai-api/internal/models"
	"github.com/drivedrcc-eng/central-senai-api/internal/repository"
	"github.com/drivedrcc-eng/central-senai-api/internal/service"
	"github.com/drivedrcc-eng/central-senai-api/pkg/cache"
	"github.com/drivedrcc-eng/central-senai-api/pkg/config"
	"github.com/drivedrcc-eng/central-senai-api/pkg/database"
	"github.com/drivedrcc-eng/central-senai-api/pkg/jobs"
	"github.com/drivedrcc-eng/central-senai-api/pkg/logger"
	corsmiddleware "github.com/drivedrcc-eng/central-senai-api/pkg/middleware/cors"
	reqidmiddleware "github.com/drivedrcc-eng/central-senai-api/pkg/middleware/requestid"
	"github.com/drivedrcc-eng/central-senai-api/pkg/storage"
)

// @title Central SENAI API
// @version 1.0.0
// @description Class scheduling and resource booking for vocational units
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Bookings.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, booking cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Bookings.CacheTTL, logr, true)
		}
	}

	bookingRepo := repository.NewBookingRepository(db)
	blackoutRepo := repository.NewBlackoutRepository(db)
	classGroupRepo := repository.NewClassGroupRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)

	bookingSvc := service.NewBookingService(bookingRepo, blackoutRepo, classGroupRepo, courseRepo, cacheSvc, metricsSvc, cfg.Scheduler.MaxLookaheadDays, validate, logr)
	reallocationSvc := service.NewReallocationService(bookingRepo, blackoutRepo, classGroupRepo, cacheSvc, metricsSvc, cfg.Scheduler.MaxLookaheadDays, logr)
	calendarSvc := service.NewCalendarService(blackoutRepo, reallocationSvc, cacheSvc, validate, logr)
	classGroupSvc := service.NewClassGroupService(classGroupRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, validate, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, validate, logr)

	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(bookingRepo, classGroupRepo, roomRepo, courseRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, nil, nil)

		reportRepo := repository.NewReportRepository(db)
		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(ctx)

		reportSvc = service.NewReportService(reportRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, handlerSet{
		bookings:    handler.NewBookingHandler(bookingSvc),
		calendar:    handler.NewCalendarHandler(calendarSvc),
		classGroups: handler.NewClassGroupHandler(classGroupSvc),
		courses:     handler.NewCourseHandler(courseSvc),
		rooms:       handler.NewRoomHandler(roomSvc),
		instructors: handler.NewInstructorHandler(instructorSvc),
		reports:     reportHandlerOrNil(reportSvc),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	cancel()
	if reportQueue != nil {
		reportQueue.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("forced shutdown", "error", err)
	}
}

type handlerSet struct {
	bookings    *handler.BookingHandler
	calendar    *handler.CalendarHandler
	classGroups *handler.ClassGroupHandler
	courses     *handler.CourseHandler
	rooms       *handler.RoomHandler
	instructors *handler.InstructorHandler
	reports     *handler.ReportHandler
}

func reportHandlerOrNil(svc *service.ReportService) *handler.ReportHandler {
	if svc == nil {
		return nil
	}
	return handler.NewReportHandler(svc)
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h handlerSet) {
	api := r.Group(cfg.APIPrefix)

	// Export downloads authenticate via the signed token in the path.
	if h.reports != nil {
		api.GET("/export/:token", h.reports.Download)
	}

	api.Use(middleware.JWT(cfg.JWT.Secret))
	supervisor := middleware.RequireRoles(models.RoleSupervisor)

	bookings := api.Group("/bookings")
	{
		bookings.GET("", h.bookings.List)
		bookings.GET("/quota", h.bookings.Quota)
		bookings.GET("/:id", h.bookings.Get)
		bookings.POST("", h.bookings.Create)
		bookings.POST("/recurring", h.bookings.CreateRecurring)
		bookings.PUT("/:id", h.bookings.Update)
		bookings.DELETE("/:id", h.bookings.Delete)
	}

	calendar := api.Group("/calendar")
	{
		calendar.GET("", h.calendar.List)
		calendar.GET("/:date", h.calendar.Get)
		calendar.PUT("", supervisor, h.calendar.Upsert)
		calendar.DELETE("/:date", supervisor, h.calendar.Delete)
	}

	classGroups := api.Group("/class-groups")
	{
		classGroups.GET("", h.classGroups.List)
		classGroups.GET("/:id", h.classGroups.Get)
		classGroups.POST("", supervisor, h.classGroups.Create)
		classGroups.PUT("/:id", supervisor, h.classGroups.Update)
		classGroups.DELETE("/:id", supervisor, h.classGroups.Delete)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", h.courses.List)
		courses.GET("/:id", h.courses.Get)
		courses.POST("", supervisor, h.courses.Create)
		courses.PUT("/:id", supervisor, h.courses.Update)
		courses.DELETE("/:id", supervisor, h.courses.Delete)
		courses.GET("/:id/subjects", h.courses.ListSubjects)
		courses.POST("/:id/subjects", supervisor, h.courses.CreateSubject)
	}
	api.DELETE("/subjects/:subjectId", supervisor, h.courses.DeleteSubject)

	rooms := api.Group("/rooms")
	{
		rooms.GET("", h.rooms.List)
		rooms.GET("/:id", h.rooms.Get)
		rooms.POST("", supervisor, h.rooms.Create)
		rooms.PUT("/:id", supervisor, h.rooms.Update)
		rooms.DELETE("/:id", supervisor, h.rooms.Delete)
	}

	instructors := api.Group("/instructors")
	{
		instructors.GET("", h.instructors.List)
		instructors.GET("/:id", h.instructors.Get)
		instructors.POST("", supervisor, h.instructors.Create)
		instructors.PUT("/:id", supervisor, h.instructors.Update)
		instructors.DELETE("/:id", supervisor, h.instructors.Delete)
	}

	if h.reports != nil {
		reports := api.Group("/reports")
		{
			reports.POST("", h.reports.Create)
			reports.GET("/:id", h.reports.Status)
		}
	}
}
