package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Configuración de la Aplicación
	Environment string
	AppName     string
	AppPort     string

	// Configuración de Base de Datos
	DBDriver    string // mysql | postgres | sqlite
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBCharset   string
	DatabaseURL string
	SQLitePath  string

	// Configuración de Seguridad
	JWTSecret          string
	JWTExpirationHours int
	PasswordSaltRounds int

	// Configuración de CORS
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string

	// Configuración de Rate Limiting
	EnableRateLimit        bool
	RateLimitRequests      int
	RateLimitDuration      time.Duration
	LoginRateLimitRequests int
	LoginRateLimitDuration time.Duration

	// Configuración de Logs
	LogLevel string
	LogFile  string

	// Configuración de Inicialización
	CreateDefaultAdmin   bool
	DefaultAdminUsername string
	DefaultAdminPass     string

	// Redis (opcional): revocación de tokens y lock de cierres
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Respaldos
	BackupDir           string
	BackupInterval      time.Duration
	BackupRetentionDays int
	GCSBucket           string
	GCSCredentialsJSON  string

	// Origen de la base de efectivo al crear un cierre
	ClosingCashSource string

	MaxRequestSize int64 // en bytes
	RequestTimeout time.Duration
}

var AppConfig *Config

func LoadConfig() *Config {

	_ = godotenv.Load() // intentamos cargar, si no existe, sigue (no fatal)

	envFinal := getEnv("APP_ENV", "development")

	config := &Config{
		// Aplicación
		Environment: envFinal,
		AppName:     getEnv("APP_NAME", "DinoCars"),
		AppPort:     getEnv("APP_PORT", "8000"),

		// Base de Datos
		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBHost:      getEnv("DB_HOST", "127.0.0.1"),
		DBPort:      getEnv("DB_PORT", "3306"),
		DBUser:      getEnv("DB_USER", "root"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "dinocars"),
		DBCharset:   getEnv("DB_CHARSET", "utf8mb4"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "dinocars.db"),

		// Seguridad
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		PasswordSaltRounds: getEnvAsInt("PASSWORD_SALT_ROUNDS", 12),

		// CORS
		AllowedOrigins: getAllowedOrigins(envFinal),
		AllowedMethods: getEnvAsSlice("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders: getEnvAsSlice("ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"}),

		// Rate Limiting
		EnableRateLimit:        getEnvAsBool("ENABLE_RATE_LIMIT", true),
		RateLimitRequests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration:      time.Duration(getEnvAsInt("RATE_LIMIT_DURATION_SECONDS", 60)) * time.Second,
		LoginRateLimitRequests: getEnvAsInt("LOGIN_RATE_LIMIT_REQUESTS", 5),
		LoginRateLimitDuration: time.Duration(getEnvAsInt("LOGIN_RATE_LIMIT_DURATION_SECONDS", 60)) * time.Second,

		// Logs
		LogLevel: getEnv("LOG_LEVEL", getDefaultLogLevel(envFinal)),
		LogFile:  getEnv("LOG_FILE", ""),

		// Inicialización
		CreateDefaultAdmin:   getEnvAsBool("CREATE_DEFAULT_ADMIN", true),
		DefaultAdminUsername: getEnv("DEFAULT_ADMIN_USERNAME", "admin"),
		DefaultAdminPass:     os.Getenv("DEFAULT_ADMIN_PASSWORD"),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Respaldos
		BackupDir:           getEnv("BACKUP_DIR", "backups"),
		BackupInterval:      time.Duration(getEnvAsInt("BACKUP_INTERVAL_HOURS", 24)) * time.Hour,
		BackupRetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		GCSBucket:           getEnv("GCS_BUCKET", ""),
		GCSCredentialsJSON:  getEnv("GCS_CREDENTIALS_JSON", ""),

		ClosingCashSource: getEnv("CLOSING_CASH_SOURCE", "cash_in_box"),

		MaxRequestSize: int64(getEnvAsInt("MAX_REQUEST_SIZE_MB", 10)) * 1024 * 1024,
		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	if config.JWTSecret == "" {
		config.JWTSecret = generateSecureSecret(envFinal)
	}
	if config.DefaultAdminPass == "" && !config.IsProduction() {
		config.DefaultAdminPass = "admin123"
	}

	// Validaciones críticas para producción
	if config.IsProduction() {
		if err := config.validateProductionConfig(); err != nil {
			log.Fatal("❌ ERRORES DE CONFIGURACIÓN PARA PRODUCCIÓN:\n", err)
		}
	}

	AppConfig = config
	return config
}

// validateProductionConfig valida que la configuración sea segura para producción
func (c *Config) validateProductionConfig() error {
	errors := []string{}

	// JWT Secret debe ser fuerte en producción
	if len(c.JWTSecret) < 64 {
		errors = append(errors, "JWT_SECRET debe tener al menos 64 caracteres en producción")
	}

	if c.DBDriver == "mysql" {
		weakPasswords := []string{"12345", "root", "password", "admin", ""}
		for _, weak := range weakPasswords {
			if c.DBPassword == weak {
				errors = append(errors, "DB_PASSWORD debe ser una contraseña segura en producción")
				break
			}
		}
		if c.DBUser == "root" {
			errors = append(errors, "DB_USER no debe ser 'root' en producción")
		}
	}

	// CORS no debe permitir todos los orígenes
	if len(c.AllowedOrigins) == 1 && c.AllowedOrigins[0] == "*" {
		errors = append(errors, "CORS no debe permitir todos los orígenes (*) en producción")
	}

	if c.CreateDefaultAdmin && len(c.DefaultAdminPass) < 12 {
		errors = append(errors, "DEFAULT_ADMIN_PASSWORD debe tener al menos 12 caracteres en producción")
	}

	// JWT expiration debe ser razonable
	if c.JWTExpirationHours > 168 { // 7 días
		log.Println("ADVERTENCIA: JWT_EXPIRATION_HOURS es muy alto (>7 días)")
	}

	// Password salt rounds debe ser suficiente
	if c.PasswordSaltRounds < 12 {
		errors = append(errors, "PASSWORD_SALT_ROUNDS debe ser al menos 12 en producción")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "\n"))
	}

	log.Println("Configuración validada para producción")
	return nil
}

// GetDSN retorna el DSN según el driver configurado
func (c *Config) GetDSN() string {
	switch c.DBDriver {
	case "postgres":
		if c.DatabaseURL != "" {
			return c.DatabaseURL
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	case "sqlite":
		return c.SQLitePath
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			c.DBUser,
			c.DBPassword,
			c.DBHost,
			c.DBPort,
			c.DBName,
			c.DBCharset,
		)
	}
}

// GetServerDSN retorna el DSN para conectarse al servidor MySQL sin especificar base de datos
func (c *Config) GetServerDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/?charset=%s&parseTime=True&loc=Local",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBCharset,
	)
}

// IsDevelopment retorna true si estamos en modo desarrollo
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction retorna true si estamos en modo producción
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Funciones auxiliares

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// getAllowedOrigins retorna los orígenes permitidos según el entorno
func getAllowedOrigins(env string) []string {
	origins := getEnvAsSlice("ALLOWED_ORIGINS", nil)

	if env == "production" {
		if len(origins) == 0 {
			log.Fatal("ALLOWED_ORIGINS debe estar configurado en producción")
		}
		return origins
	}

	if len(origins) > 0 {
		return origins
	}

	// Frontend Next.js local
	return []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:8000",
	}
}

// generateSecureSecret genera un secret seguro
func generateSecureSecret(env string) string {
	if env == "production" {
		log.Fatal("JWT_SECRET debe estar configurado en producción. No se puede usar un valor generado automáticamente.")
	}

	log.Println("ADVERTENCIA: Generando JWT_SECRET temporal para desarrollo. NO USAR EN PRODUCCIÓN")

	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		log.Fatal("Error generando secret:", err)
	}

	return base64.StdEncoding.EncodeToString(b)
}

// getDefaultLogLevel retorna el nivel de log por defecto según el entorno
func getDefaultLogLevel(env string) string {
	if env == "production" {
		return "info"
	}
	return "debug"
}
