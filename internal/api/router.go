package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/attendly/faceclock/internal/api/docs"
	"github.com/attendly/faceclock/internal/api/handler"
	"github.com/attendly/faceclock/internal/api/middleware"
	"github.com/attendly/faceclock/internal/repository"
	"github.com/attendly/faceclock/internal/service"
	"github.com/attendly/faceclock/internal/settings"
)

type Dependencies struct {
	Enrollment     *service.EnrollmentService
	Kiosk          *service.KioskService
	AttendanceRepo repository.AttendanceRepositoryInterface
	Settings       *settings.Manager
	DB             *pgxpool.Pool
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Faceclock API",
		BodyLimit:    12 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	var pool *pgxpool.Pool
	if r.deps != nil {
		pool = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(pool)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// API v1 group
	v1 := r.app.Group("/v1")

	// Only configure routes if dependencies were provided
	if r.deps != nil {
		kioskHandler := handler.NewKioskHandler(r.deps.Kiosk, r.logger)
		v1.Post("/kiosk/sessions", kioskHandler.StartSession)
		v1.Delete("/kiosk/sessions/:id", kioskHandler.EndSession)
		v1.Post("/kiosk/sessions/:id/frames", kioskHandler.ProcessFrame)

		enrollmentHandler := handler.NewEnrollmentHandler(r.deps.Enrollment, r.logger)
		v1.Post("/employees/:employee_id/face", enrollmentHandler.Enroll)
		v1.Delete("/employees/:employee_id/face", enrollmentHandler.Delete)

		attendanceHandler := handler.NewAttendanceHandler(r.deps.AttendanceRepo, r.logger)
		v1.Get("/attendance/:employee_id/today", attendanceHandler.Today)

		settingsHandler := handler.NewSettingsHandler(r.deps.Settings, r.logger)
		v1.Get("/settings", settingsHandler.Get)
		v1.Patch("/settings", settingsHandler.Update)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
