package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/handler/http/middleware"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth/v5"
	"github.com/unrolled/secure"
)

// RouterOptions carries the transport settings of the router.
type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	Production     bool

	// Requests per minute per client IP on login and imports.
	LoginRateLimit  int
	ImportRateLimit int
}

type Handlers struct {
	Auth         AuthHandler
	WorkBlock    WorkBlockHandler
	Schedule     ScheduleHandler
	Payroll      PayrollHandler
	Report       ReportHandler
	Master       MasterHandler
	Employee     EmployeeHandler
	Absence      AbsenceHandler
	Notification NotificationHandler
}

func rateLimiter(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		perMinute = 10
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.TooManyRequests(w, "Too many requests, try again later")
		}),
	)
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        opts.Production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !opts.Production,
	}).Handler)

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.With(rateLimiter(opts.LoginRateLimit)).Post("/login", h.Auth.Login)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminOnly)

				r.Route("/time-blocks", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(rateLimiter(opts.ImportRateLimit))
						r.Post("/import", h.WorkBlock.Import)
						r.Post("/import/csv", h.WorkBlock.ImportCSV)
					})
					r.Post("/", h.WorkBlock.Create)
					r.Get("/", h.WorkBlock.List)
					r.Put("/{id}", h.WorkBlock.Update)
					r.Delete("/{id}", h.WorkBlock.Delete)
				})

				r.Route("/schedules", func(r chi.Router) {
					r.Post("/", h.Schedule.CreateSchedule)
					r.Get("/", h.Schedule.ListSchedules)
					r.Get("/{id}", h.Schedule.GetSchedule)
					r.Post("/{id}/publish", h.Schedule.PublishSchedule)
					r.Delete("/{id}", h.Schedule.DeleteSchedule)
					r.Get("/{id}/shifts", h.Schedule.ListScheduleShifts)
				})

				r.Route("/shifts", func(r chi.Router) {
					r.Post("/", h.Schedule.CreateShift)
					r.Put("/{id}", h.Schedule.UpdateShift)
					r.Delete("/{id}", h.Schedule.DeleteShift)
				})

				r.Route("/payrolls", func(r chi.Router) {
					r.Get("/calculate", h.Payroll.Calculate)
					r.Post("/generate", h.Payroll.Generate)
					r.Post("/generate/batch", h.Payroll.GenerateBatch)
					r.Get("/", h.Payroll.List)
					r.Get("/{id}", h.Payroll.Get)
					r.Post("/{id}/recalculate", h.Payroll.Recalculate)
					r.Post("/{id}/validate", h.Payroll.Validate)
					r.Put("/{id}/notes", h.Payroll.UpdateNotes)
					r.Delete("/{id}", h.Payroll.Delete)
					r.Get("/{id}/work-blocks", h.Payroll.ListWorkBlocks)
				})

				r.Route("/reports", func(r chi.Router) {
					r.Get("/employees-status/{year}/{month}", h.Report.EmployeesStatus)
					r.Get("/summary/history", h.Report.HistorySummary)
					r.Get("/summary/{year}/{month}", h.Report.MonthlySummary)
				})

				r.Route("/positions", func(r chi.Router) {
					r.Get("/", h.Master.ListPositions)
					r.Post("/", h.Master.CreatePosition)
					r.Get("/{id}", h.Master.GetPosition)
					r.Put("/{id}", h.Master.UpdatePosition)
					r.Delete("/{id}", h.Master.DeletePosition)
				})

				r.Route("/holidays", func(r chi.Router) {
					r.Get("/", h.Master.ListHolidays)
					r.Post("/", h.Master.CreateHoliday)
					r.Delete("/{id}", h.Master.DeleteHoliday)
				})

				r.Route("/employees", func(r chi.Router) {
					r.Get("/", h.Employee.ListEmployees)
					r.Post("/", h.Employee.CreateEmployee)
					r.Get("/{id}", h.Employee.GetEmployee)
					r.Put("/{id}", h.Employee.UpdateEmployee)
					r.Post("/{id}/deactivate", h.Employee.DeactivateEmployee)
					r.Get("/{id}/shifts", h.Schedule.ListEmployeeShifts)
				})

				r.Route("/absences", func(r chi.Router) {
					r.Get("/", h.Absence.List)
					r.Get("/{id}", h.Absence.Get)
					r.Post("/{id}/approve", h.Absence.Approve)
					r.Post("/{id}/reject", h.Absence.Reject)
				})
			})
		})

		// Employee self-service
		r.Route("/me", func(r chi.Router) {
			// The stream authenticates with its own short-lived token.
			r.Get("/notifications/stream", h.Notification.Stream)

			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
				r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
				r.Use(middleware.EmployeeOnly)

				r.Get("/time-blocks", h.WorkBlock.ListMine)
				r.Post("/time-blocks", h.WorkBlock.CreateMine)
				r.Get("/shifts", h.Schedule.ListMyShifts)

				r.Route("/absences", func(r chi.Router) {
					r.Get("/", h.Absence.ListMine)
					r.Post("/", h.Absence.Request)
					r.Get("/{id}", h.Absence.Get)
				})

				r.Route("/payrolls", func(r chi.Router) {
					r.Get("/", h.Payroll.ListMine)
					r.Get("/{id}", h.Payroll.GetMine)
					r.Post("/{id}/accept", h.Payroll.Accept)
				})

				r.Get("/notifications", h.Notification.List)
				r.Get("/notifications/unread-count", h.Notification.UnreadCount)
				r.Post("/notifications/read", h.Notification.MarkAsRead)
				r.Post("/notifications/read-all", h.Notification.MarkAllAsRead)
				r.Delete("/notifications/{id}", h.Notification.Delete)
				r.Get("/notifications/sse-token", h.Notification.GetSSEToken)
			})
		})
	})
	return r
}
