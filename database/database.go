package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/NicolasR-dev/dinocars-web/config"
	"github.com/NicolasR-dev/dinocars-web/models"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB inicializa la conexión global, migra y crea el admin por defecto
func InitDB() *gorm.DB {
	cfg := config.AppConfig
	if cfg == nil {
		log.Fatal("❌ Config no inicializado. Llama config.LoadConfig() primero.")
	}

	db, err := Open(cfg)
	if err != nil {
		log.Fatal("❌ Error al conectar con la base de datos:", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatal("❌ Error en las migraciones:", err)
	}

	if cfg.CreateDefaultAdmin {
		if err := EnsureAdminUser(db, cfg); err != nil {
			log.Fatal("❌ Error al crear usuario admin:", err)
		}
	}

	DB = db
	log.Println("✅ Base de datos inicializada correctamente")
	return db
}

// Open abre la conexión según DB_DRIVER y configura el pool
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormLogger(cfg)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "mysql":
		if err := validateDBName(cfg.DBName); err != nil {
			return nil, fmt.Errorf("nombre de base de datos inválido: %w", err)
		}
		serverDB, err := gorm.Open(mysql.Open(cfg.GetServerDSN()), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("error al conectar con el servidor de base de datos: %w", err)
		}
		if err := ensureDatabaseExists(serverDB, cfg.DBName); err != nil {
			return nil, err
		}
		closeQuietly(serverDB)
		db, err = gorm.Open(mysql.Open(cfg.GetDSN()), gormCfg)
		if err != nil {
			return nil, err
		}
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.GetDSN()), gormCfg)
		if err != nil {
			return nil, err
		}
	case "sqlite":
		return openSQLite(cfg.GetDSN(), gormCfg)
	default:
		return nil, fmt.Errorf("DB_DRIVER no soportado: %q", cfg.DBDriver)
	}

	if err := configureConnectionPool(db); err != nil {
		return nil, fmt.Errorf("error al configurar pool de conexiones: %w", err)
	}
	return db, nil
}

// OpenSQLite abre una base SQLite (":memory:" para pruebas) con el logger silenciado
func OpenSQLite(path string) (*gorm.DB, error) {
	return openSQLite(path, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
}

func openSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite admite un solo escritor; con ":memory:" cada conexión sería otra base
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func gormLogger(cfg *config.Config) logger.Interface {
	if cfg.IsProduction() {
		return logger.Default.LogMode(logger.Error)
	}
	return logger.Default.LogMode(logger.Warn)
}

// validateDBName valida que el nombre de la base de datos sea seguro
func validateDBName(dbName string) error {
	if dbName == "" {
		return errors.New("el nombre de la base de datos no puede estar vacío")
	}
	if len(dbName) > 64 {
		return errors.New("el nombre de la base de datos es demasiado largo (máx 64 caracteres)")
	}
	for _, char := range dbName {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') || char == '_') {
			return fmt.Errorf("carácter no permitido en nombre de BD: %c", char)
		}
	}
	return nil
}

// ensureDatabaseExists verifica y crea la base de datos si no existe
func ensureDatabaseExists(serverDB *gorm.DB, dbName string) error {
	var count int64
	query := "SELECT COUNT(*) FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?"
	if err := serverDB.Raw(query, dbName).Scan(&count).Error; err != nil {
		return fmt.Errorf("error al verificar existencia de BD: %w", err)
	}

	if count > 0 {
		log.Printf("ℹ️  Base de datos '%s' ya existe\n", dbName)
		return nil
	}

	// CREATE DATABASE no admite parámetros; el nombre ya fue validado
	createStmt := fmt.Sprintf(
		"CREATE DATABASE `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci",
		dbName,
	)
	if err := serverDB.Exec(createStmt).Error; err != nil {
		return fmt.Errorf("error al crear BD: %w", err)
	}
	log.Printf("✅ Base de datos '%s' creada\n", dbName)
	return nil
}

func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}

// Migrate ejecuta las migraciones de la base de datos
func Migrate(db *gorm.DB) error {
	tables := []interface{}{
		&models.User{},
		&models.Schedule{},
		&models.DailyRecord{},
	}

	for _, model := range tables {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("error al migrar %T: %w", model, err)
		}
	}

	return nil
}

// EnsureAdminUser crea el usuario administrador si no existe
func EnsureAdminUser(db *gorm.DB, cfg *config.Config) error {
	if cfg.DefaultAdminPass == "" {
		return errors.New("DEFAULT_ADMIN_PASSWORD debe estar configurado en producción")
	}

	var existing models.User
	err := db.Where("username = ?", cfg.DefaultAdminUsername).First(&existing).Error
	if err == nil {
		log.Printf("ℹ️  Usuario admin '%s' ya existe\n", cfg.DefaultAdminUsername)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DefaultAdminPass), cfg.PasswordSaltRounds)
	if err != nil {
		return fmt.Errorf("error al hashear password: %w", err)
	}

	admin := models.User{
		Username:     cfg.DefaultAdminUsername,
		PasswordHash: string(hashed),
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("error al crear usuario admin: %w", err)
	}

	log.Printf("✅ Usuario admin creado: %s\n", admin.Username)
	if !cfg.IsProduction() {
		log.Printf("🔑 Password: %s\n", cfg.DefaultAdminPass)
	}
	return nil
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close cierra la conexión a la base de datos de forma segura
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func closeQuietly(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
