// Package app assembles repositories, services and HTTP handlers.
package app

import (
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/absence"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/auth"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/holiday"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/position"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/user"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	appHTTP "github.com/cmlabs-hris/cafeteria-payroll/internal/handler/http"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/cache"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/sse"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/repository/memory"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/repository/postgresql"
	absenceService "github.com/cmlabs-hris/cafeteria-payroll/internal/service/absence"
	authService "github.com/cmlabs-hris/cafeteria-payroll/internal/service/auth"
	employeeService "github.com/cmlabs-hris/cafeteria-payroll/internal/service/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/service/file"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/service/master"
	notificationService "github.com/cmlabs-hris/cafeteria-payroll/internal/service/notification"
	payrollService "github.com/cmlabs-hris/cafeteria-payroll/internal/service/payroll"
	reportService "github.com/cmlabs-hris/cafeteria-payroll/internal/service/report"
	scheduleService "github.com/cmlabs-hris/cafeteria-payroll/internal/service/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/service/timeblock"
)

// Repositories is one storage backend.
type Repositories struct {
	Tx            database.Transactor
	Users         user.UserRepository
	Employees     employee.EmployeeRepository
	Positions     position.PositionRepository
	Holidays      holiday.HolidayRepository
	Absences      absence.AbsenceRepository
	Blocks        workblock.WorkBlockRepository
	Schedules     schedule.ScheduleRepository
	Shifts        schedule.ShiftRepository
	Payrolls      payroll.PayrollRepository
	Notifications notification.Repository
}

func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Tx:            memory.NewTransactor(store),
		Users:         memory.NewUserRepository(store),
		Employees:     memory.NewEmployeeRepository(store),
		Positions:     memory.NewPositionRepository(store),
		Holidays:      memory.NewHolidayRepository(store),
		Absences:      memory.NewAbsenceRepository(store),
		Blocks:        memory.NewWorkBlockRepository(store),
		Schedules:     memory.NewScheduleRepository(store),
		Shifts:        memory.NewShiftRepository(store),
		Payrolls:      memory.NewPayrollRepository(store),
		Notifications: memory.NewNotificationRepository(store),
	}
}

func PostgresRepositories(db *database.DB) Repositories {
	return Repositories{
		Tx:            postgresql.NewTransactor(db),
		Users:         postgresql.NewUserRepository(db),
		Employees:     postgresql.NewEmployeeRepository(db),
		Positions:     postgresql.NewPositionRepository(db),
		Holidays:      postgresql.NewHolidayRepository(db),
		Absences:      postgresql.NewAbsenceRepository(db),
		Blocks:        postgresql.NewWorkBlockRepository(db),
		Schedules:     postgresql.NewScheduleRepository(db),
		Shifts:        postgresql.NewShiftRepository(db),
		Payrolls:      postgresql.NewPayrollRepository(db),
		Notifications: postgresql.NewNotificationRepository(db),
	}
}

type Deps struct {
	Repos    Repositories
	JWT      jwt.Service
	Location *time.Location

	// Optional collaborators; nil disables them.
	Cache  *cache.Cache
	Mailer notificationService.Mailer
	Files  file.FileService

	Notifications notificationService.Config
}

// App is the wired service graph.
type App struct {
	Handlers      appHTTP.Handlers
	Auth          auth.AuthService
	Notifications notification.Service
	Hub           *sse.Hub
}

func New(d Deps) *App {
	r := d.Repos
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}

	hub := sse.NewHub()
	notifications := notificationService.NewNotificationService(r.Notifications, hub, r.Employees, d.Mailer, d.Notifications)

	authSvc := authService.NewAuthService(r.Users, r.Employees, d.JWT)
	masterSvc := master.NewMasterService(r.Positions, r.Holidays)
	employeeSvc := employeeService.NewEmployeeService(r.Tx, r.Employees, r.Users, r.Positions, r.Shifts, loc)
	scheduleSvc := scheduleService.NewScheduleService(r.Tx, r.Schedules, r.Shifts, r.Employees, r.Absences, notifications, loc)
	absenceSvc := absenceService.NewAbsenceService(r.Tx, r.Absences, r.Shifts, r.Employees, notifications)

	blockValidator := timeblock.NewValidator(time.Now, loc)
	blockSvc := timeblock.NewWorkBlockService(r.Tx, r.Blocks, r.Employees, r.Payrolls, blockValidator)
	importSvc := timeblock.NewImportService(r.Tx, r.Blocks, r.Employees, r.Payrolls, blockValidator, d.Files)

	calculator := payrollService.NewCalculator(r.Employees, r.Positions, r.Blocks, r.Holidays, scheduleSvc)
	payrollSvc := payrollService.NewPayrollService(calculator, r.Payrolls, r.Employees, r.Blocks, r.Shifts, notifications, d.Cache)
	reportSvc := reportService.NewReportService(r.Employees, r.Blocks, r.Shifts, r.Payrolls, d.Cache)

	return &App{
		Handlers: appHTTP.Handlers{
			Auth:         appHTTP.NewAuthHandler(authSvc),
			WorkBlock:    appHTTP.NewWorkBlockHandler(blockSvc, importSvc),
			Schedule:     appHTTP.NewScheduleHandler(scheduleSvc),
			Payroll:      appHTTP.NewPayrollHandler(payrollSvc),
			Report:       appHTTP.NewReportHandler(reportSvc),
			Master:       appHTTP.NewMasterHandler(masterSvc),
			Employee:     appHTTP.NewEmployeeHandler(employeeSvc),
			Absence:      appHTTP.NewAbsenceHandler(absenceSvc),
			Notification: appHTTP.NewNotificationHandler(notifications, d.JWT),
		},
		Auth:          authSvc,
		Notifications: notifications,
		Hub:           hub,
	}
}
