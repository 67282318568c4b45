package server

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jpresto/eventpass/config"
	"github.com/jpresto/eventpass/internal/attendance"
	"github.com/jpresto/eventpass/internal/handlers"
	"github.com/jpresto/eventpass/internal/lifecycle"
	"github.com/jpresto/eventpass/internal/middleware"
	"github.com/jpresto/eventpass/internal/models"
	"github.com/jpresto/eventpass/internal/notify"
	"github.com/jpresto/eventpass/internal/realtime"
	"github.com/jpresto/eventpass/internal/storage"
)

func Start() error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	registerValidators()

	eventStore := storage.NewEventStore(db)
	userStore := storage.NewUserStore(db)
	attendanceStore := storage.NewAttendanceStore(db)
	notificationStore := storage.NewNotificationStore(db)

	reconciler := lifecycle.NewReconciler(eventStore, log)
	attendanceService := attendance.NewService(attendanceStore, userStore, log)
	dispatcher := notify.NewDispatcher(userStore, notificationStore, log)
	hub := realtime.NewHub(log)

	if err := scheduleReconciler(cfg.ReconcileSpec, reconciler, log); err != nil {
		return fmt.Errorf("failed to schedule reconciler: %v", err)
	}

	r := gin.Default()

	setupRoutes(r, db, reconciler, attendanceService, dispatcher, hub, log)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

// scheduleReconciler runs the status reconciler on an interval. The job is
// idempotent, so overlapping or repeated runs are harmless.
func scheduleReconciler(spec string, reconciler *lifecycle.Reconciler, log *logrus.Logger) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := reconciler.ReconcileStatuses(time.Now().UTC()); err != nil {
			log.WithError(err).Error("scheduled status reconcile failed")
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}

func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("audience", func(fl validator.FieldLevel) bool {
		switch models.TargetAudience(fl.Field().String()) {
		case models.AudienceAllStudents, models.AudienceElementary,
			models.AudienceHighSchool, models.AudienceSeniorHigh, models.AudienceCollege:
			return true
		}
		return false
	})
	v.RegisterValidation("education_level", func(fl validator.FieldLevel) bool {
		switch models.EducationLevel(fl.Field().String()) {
		case models.LevelElementary, models.LevelHighSchool,
			models.LevelSeniorHigh, models.LevelCollege:
			return true
		}
		return false
	})
}

func setupRoutes(
	r *gin.Engine,
	db *gorm.DB,
	reconciler *lifecycle.Reconciler,
	attendanceService *attendance.Service,
	dispatcher *notify.Dispatcher,
	hub *realtime.Hub,
	log *logrus.Logger,
) {
	r.Use(middleware.DatabaseMiddleware(db))

	eventHandler := handlers.NewEventHandler(db, dispatcher, hub, log)
	attendanceHandler := handlers.NewAttendanceHandler(db, attendanceService)
	notificationHandler := handlers.NewNotificationHandler(db)
	dashboardHandler := handlers.NewDashboardHandler(db, reconciler)

	r.GET("/ws", hub.Serve)

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", eventHandler.List)
			eventPublic.GET("/:id", eventHandler.Get)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		eventProtected := protected.Group("/events")
		{
			eventProtected.POST("/:id/join", attendanceHandler.Join)
			eventProtected.POST("/:id/decline", attendanceHandler.Decline)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.ListMine)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}
	}

	staff := r.Group("/v1")
	staff.Use(middleware.JWTAuthMiddleware(), middleware.RequireRole("admin", "staff"))
	{
		eventStaff := staff.Group("/events")
		{
			eventStaff.POST("", eventHandler.Create)
			eventStaff.PUT("/:id", eventHandler.Update)
			eventStaff.POST("/:id/cancel", eventHandler.Cancel)
			eventStaff.DELETE("/:id", eventHandler.Delete)
			eventStaff.POST("/:id/rfid-tap", attendanceHandler.RFIDTap)
			eventStaff.GET("/:id/attendees", dashboardHandler.Attendees)
		}

		staff.GET("/dashboard", dashboardHandler.Overview)
		staff.POST("/admin/reconcile", dashboardHandler.Reconcile)
	}
}
