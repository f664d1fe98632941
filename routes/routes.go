package routes

import (
	"net/http"
	"time"

	"github.com/NicolasR-dev/dinocars-web/config"
	"github.com/NicolasR-dev/dinocars-web/controllers"
	"github.com/NicolasR-dev/dinocars-web/middleware"
	"github.com/NicolasR-dev/dinocars-web/services"
	"github.com/NicolasR-dev/dinocars-web/utils"
	"github.com/NicolasR-dev/dinocars-web/validators"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies son los servicios que main arma y las rutas exponen
type Dependencies struct {
	Config    *config.Config
	DB        *gorm.DB
	Auth      *services.AuthService
	Records   *services.RecordService
	Excel     *services.ExcelService
	Users     *services.UserService
	Schedules *services.ScheduleService
	Stats     *services.StatsService
	Backups   *services.BackupService
}

const roleCacheTTL = 5 * time.Minute

func SetupRoutes(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	validators.RegisterBindingValidations()

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLoggerMiddleware(),
		middleware.CORSMiddleware(cfg),
		middleware.SecurityHeadersMiddleware(cfg.IsProduction()),
		middleware.ForceHTTPS(cfg.IsProduction()),
		middleware.RequestSizeLimitMiddleware(cfg.MaxRequestSize),
		middleware.TimeoutMiddleware(cfg.RequestTimeout),
		middleware.RateLimitMiddleware(cfg),
	)

	rbac := middleware.NewRBACManager(deps.DB, roleCacheTTL)
	limiters := middleware.NewEndpointLimiters(cfg)

	// Controladores
	authController := controllers.NewAuthController(deps.Auth)
	recordController := controllers.NewRecordController(deps.Records, deps.Excel)
	adminController := controllers.NewAdminController(deps.Users, rbac)
	scheduleController := controllers.NewScheduleController(deps.Schedules)
	statsController := controllers.NewStatsController(deps.Stats)
	backupController := controllers.NewBackupController(deps.Backups)

	r.GET("/health", controllers.HealthHandler(deps.DB))

	// Rutas públicas
	public := r.Group("/api")
	{
		public.POST("/token", middleware.LoginRateLimitMiddleware(cfg), authController.Login)
	}

	// Rutas protegidas
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(deps.Auth))
	{
		protected.POST("/logout", authController.Logout)
		protected.GET("/me", authController.Me)

		// Cierres de caja
		protected.POST("/calculate-vueltas", rbac.RequirePermission(middleware.PermCalculateRides), recordController.CalculateRides)
		protected.GET("/last-record", rbac.RequirePermission(middleware.PermReadRecord), recordController.LastRecord)

		records := protected.Group("/records")
		records.POST("/preview", rbac.RequirePermission(middleware.PermCreateRecord), recordController.Preview)
		records.POST("", rbac.RequirePermission(middleware.PermCreateRecord), recordController.Create)
		records.GET("", rbac.RequirePermission(middleware.PermReadRecord), recordController.List)
		records.GET("/summary", rbac.RequirePermission(middleware.PermReadRecord), recordController.Summary)
		records.GET("/export", rbac.RequirePermission(middleware.PermExportRecords), limiters.Limit(middleware.EndpointReports), recordController.Export)
		records.POST("/import", rbac.RequirePermission(middleware.PermImportRecords), limiters.Limit(middleware.EndpointFileUpload), recordController.Import)
		records.GET("/:id", rbac.RequirePermission(middleware.PermReadRecord), recordController.Get)
		records.PUT("/:id", rbac.RequirePermission(middleware.PermUpdateRecord), recordController.Update)
		records.DELETE("/:id", rbac.RequirePermission(middleware.PermDeleteRecord), recordController.Delete)

		// Usuarios
		users := protected.Group("/users", limiters.Limit(middleware.EndpointAdmin))
		users.GET("", rbac.RequirePermission(middleware.PermReadUsers), adminController.GetUsers)
		users.POST("", rbac.RequirePermission(middleware.PermManageUsers), adminController.CreateUser)
		users.PUT("/:id", rbac.RequirePermission(middleware.PermManageUsers), adminController.UpdateUser)
		users.DELETE("/:id", rbac.RequirePermission(middleware.PermManageUsers), adminController.DeleteUser)
		users.POST("/:id/schedules", rbac.RequirePermission(middleware.PermManageSchedule), scheduleController.Create)

		// Horarios
		schedules := protected.Group("/schedules")
		schedules.GET("/month", rbac.RequirePermission(middleware.PermReadSchedule), scheduleController.Month)
		schedules.GET("/week", rbac.RequirePermission(middleware.PermReadSchedule), scheduleController.Week)
		schedules.DELETE("/:id", rbac.RequirePermission(middleware.PermManageSchedule), scheduleController.Delete)

		// Administración
		admin := protected.Group("/admin", limiters.Limit(middleware.EndpointAdmin))
		admin.GET("/dashboard-stats", rbac.RequirePermission(middleware.PermViewStats), statsController.DashboardStats)
		admin.GET("/backups", rbac.RequirePermission(middleware.PermManageBackups), backupController.List)
		admin.POST("/backups", rbac.RequirePermission(middleware.PermManageBackups), backupController.Run)
		admin.GET("/rate-limits", rbac.RequirePermission(middleware.PermManageBackups), func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, limiters.Stats())
		})
	}

	r.NoRoute(func(ctx *gin.Context) {
		utils.HandleNotFoundError(ctx, "Recurso")
	})

	return r
}
