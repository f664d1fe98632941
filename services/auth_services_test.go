package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NicolasR-dev/dinocars-web/config"
	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthService_LoginValidateLogout(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuth(t, db)
	users := NewUserService(db, auth)
	ctx := context.Background()

	if _, err := users.Create(ctx, &models.UserCreateRequest{Username: "manager1", Password: "secreto1", Role: models.RoleManager}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, _, err := auth.Login(ctx, "manager1", "incorrecta"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "nadie", "secreto1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}

	token, user, err := auth.Login(ctx, "manager1", "secreto1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Role != models.RoleManager {
		t.Fatalf("unexpected role %q", user.Role)
	}

	claims, err := auth.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Username != "manager1" || claims.Role != models.RoleManager || claims.UserID != user.ID {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if err := auth.Logout(ctx, claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := auth.ValidateToken(ctx, token); !errors.Is(err, ErrTokenRevoked) || !errors.Is(err, utils.ErrUnauthorized) {
		t.Fatalf("expected revoked token, got %v", err)
	}

	// Un token nuevo del mismo usuario sigue siendo válido
	other, _, err := auth.Login(ctx, "manager1", "secreto1")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if _, err := auth.ValidateToken(ctx, other); err != nil {
		t.Fatalf("second token should be valid: %v", err)
	}
}

func TestAuthService_RejectsBadTokens(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuth(t, db)
	ctx := context.Background()

	user := &models.User{ID: 7, Username: "w", Role: models.RoleWorker}

	expired := newTestAuth(t, db)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.IssueToken(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	foreign, err := NewAuthService(db, &config.Config{JWTSecret: "another-secret-another-secret-1234", PasswordSaltRounds: 4}, nil)
	if err != nil {
		t.Fatalf("foreign auth: %v", err)
	}
	forged, _, err := foreign.IssueToken(user)
	if err != nil {
		t.Fatalf("issue forged: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 7}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]string{
		"expired":  old,
		"forged":   forged,
		"alg none": none,
		"garbage":  "not-a-token",
		"empty":    "",
	}
	for name, tok := range cases {
		if _, err := auth.ValidateToken(ctx, tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected invalid token, got %v", name, err)
		}
	}
}

func TestAuthService_ResetPassword(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuth(t, db)
	ctx := context.Background()

	if _, err := NewUserService(db, auth).Create(ctx, &models.UserCreateRequest{Username: "worker1", Password: "secreto1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := auth.ResetPassword(ctx, "worker1", "nueva123"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, _, err := auth.Login(ctx, "worker1", "nueva123"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if err := auth.ResetPassword(ctx, "nadie", "nueva123"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestMemoryTokenStore_Expiry(t *testing.T) {
	store := NewMemoryTokenStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Revoke(ctx, "jti-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := store.IsRevoked(ctx, "jti-1"); !ok {
		t.Fatalf("expected jti-1 revoked")
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := store.IsRevoked(ctx, "jti-1"); ok {
		t.Fatalf("expected jti-1 to expire from the list")
	}
}

func TestMemoryLocker_SerializesAndHonorsContext(t *testing.T) {
	locker := NewMemoryLocker()
	unlock, err := locker.Lock(context.Background(), "k", time.Second)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "k", time.Second); !errors.Is(err, ErrLockNotObtained) {
		t.Fatalf("expected lock not obtained while held, got %v", err)
	}

	// Otra clave no espera
	other, err := locker.Lock(context.Background(), "other", time.Second)
	if err != nil {
		t.Fatalf("lock other key: %v", err)
	}
	other()

	unlock()
	again, err := locker.Lock(context.Background(), "k", time.Second)
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()
}
