package database

import (
	"testing"

	"github.com/NicolasR-dev/dinocars-web/config"
	"github.com/NicolasR-dev/dinocars-web/models"

	"golang.org/x/crypto/bcrypt"
)

func TestMigrateAndSeedAdmin(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		Environment:          "development",
		DefaultAdminUsername: "admin",
		DefaultAdminPass:     "admin123",
		PasswordSaltRounds:   bcrypt.MinCost,
	}
	if err := EnsureAdminUser(db, cfg); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Segunda vez no duplica
	if err := EnsureAdminUser(db, cfg); err != nil {
		t.Fatalf("seed again: %v", err)
	}

	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].Role != models.RoleAdmin {
		t.Fatalf("expected admin role, got %q", users[0].Role)
	}
	if bcrypt.CompareHashAndPassword([]byte(users[0].PasswordHash), []byte("admin123")) != nil {
		t.Fatalf("stored hash does not match seeded password")
	}
	if err := Ping(db); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestValidateDBName(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"dinocars", true},
		{"dino_cars_2", true},
		{"", false},
		{"dino-cars", false},
		{"x`; DROP DATABASE y", false},
	}
	for _, tc := range cases {
		err := validateDBName(tc.name)
		if (err == nil) != tc.ok {
			t.Fatalf("validateDBName(%q): err = %v", tc.name, err)
		}
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(&config.Config{DBDriver: "oracle"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
