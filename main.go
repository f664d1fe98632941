package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NicolasR-dev/dinocars-web/config"
	"github.com/NicolasR-dev/dinocars-web/database"
	"github.com/NicolasR-dev/dinocars-web/reconciliation"
	"github.com/NicolasR-dev/dinocars-web/routes"
	"github.com/NicolasR-dev/dinocars-web/services"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.LoadConfig()

	if err := utils.InitLogger(cfg.Environment, cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatal("❌ Error al inicializar logger:", err)
	}
	defer utils.Close()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Inicializar base de datos
	db := database.InitDB()
	defer database.Close()

	policy, err := reconciliation.ParseBaselinePolicy(cfg.ClosingCashSource)
	if err != nil {
		utils.Logger.Fatal("CLOSING_CASH_SOURCE inválido", zap.Error(err))
	}

	// Redis es opcional: sin REDIS_ADDR se usan las variantes en memoria
	var (
		tokens services.TokenStore = services.NewMemoryTokenStore()
		locker services.Locker     = services.NewMemoryLocker()
	)
	rdb, err := cfg.ConnectRedis(sigCtx)
	if err != nil {
		utils.Logger.Fatal("Error al conectar con Redis", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
		tokens = services.NewRedisTokenStore(rdb)
		locker = services.NewRedisLocker(rdb)
		utils.Logger.Info("Redis conectado", zap.String("addr", cfg.RedisAddr))
	}

	authService, err := services.NewAuthService(db, cfg, tokens)
	if err != nil {
		utils.Logger.Fatal("Error al inicializar autenticación", zap.Error(err))
	}
	recordService := services.NewRecordService(db, locker, policy)

	var uploader services.Uploader
	if cfg.GCSBucket != "" {
		gcs, err := services.NewGCSUploader(sigCtx, cfg.GCSBucket, cfg.GCSCredentialsJSON)
		if err != nil {
			utils.Logger.Fatal("Error al inicializar Cloud Storage", zap.Error(err))
		}
		defer gcs.Close()
		uploader = gcs
	}
	backupService := services.NewBackupService(recordService, cfg.BackupDir, cfg.BackupInterval, cfg.BackupRetentionDays, uploader)
	if err := backupService.Start(); err != nil {
		utils.Logger.Fatal("Error al iniciar respaldos", zap.Error(err))
	}

	router := routes.SetupRoutes(routes.Dependencies{
		Config:    cfg,
		DB:        db,
		Auth:      authService,
		Records:   recordService,
		Excel:     services.NewExcelService(db),
		Users:     services.NewUserService(db, authService),
		Schedules: services.NewScheduleService(db),
		Stats:     services.NewStatsService(db),
		Backups:   backupService,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		utils.Logger.Info("Servidor iniciado",
			zap.String("port", cfg.AppPort),
			zap.String("environment", cfg.Environment),
			zap.String("closing_cash_source", string(recordService.Policy())),
		)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-sigCtx.Done():
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Error("El servidor se detuvo inesperadamente", zap.Error(err))
		}
	}

	// Primero los respaldos para que no arranquen trabajo nuevo
	backupService.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Logger.Error("Error en el apagado del servidor", zap.Error(err))
	}
	utils.Logger.Info("Servidor detenido")
}
