package services

import (
	"testing"

	"github.com/NicolasR-dev/dinocars-web/config"
	"github.com/NicolasR-dev/dinocars-web/database"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestAuth(t *testing.T, db *gorm.DB) *AuthService {
	t.Helper()
	auth, err := NewAuthService(db, &config.Config{
		JWTSecret:          "test-secret-with-enough-length-for-hs256",
		JWTExpirationHours: 1,
		PasswordSaltRounds: bcrypt.MinCost,
	}, NewMemoryTokenStore())
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	return auth
}

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func str(s string) *string { return &s }

func intp(i int) *int { return &i }
