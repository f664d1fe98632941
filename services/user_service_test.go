package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/utils"
)

func TestUserService_CRUD(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuth(t, db)
	svc := NewUserService(db, auth)
	ctx := context.Background()

	user, err := svc.Create(ctx, &models.UserCreateRequest{
		Username:         "  catalina ",
		Password:         "secreto1",
		DefaultStartTime: str("10:00"),
		DefaultEndTime:   str("18:00"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Username != "catalina" || user.Role != models.RoleWorker {
		t.Fatalf("unexpected user %q / %q", user.Username, user.Role)
	}
	if auth.VerifyPassword("secreto1", user.PasswordHash) != nil {
		t.Fatalf("password was not hashed with the auth hasher")
	}

	if _, err := svc.Create(ctx, &models.UserCreateRequest{Username: "catalina", Password: "otro123"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
	if _, err := svc.Create(ctx, &models.UserCreateRequest{Username: "pedro", Password: "otro123", Role: "owner"}); !errors.Is(err, utils.ErrInvalidInput) {
		t.Fatalf("expected invalid role, got %v", err)
	}

	updated, err := svc.Update(ctx, user.ID, &models.UserUpdateRequest{
		Role:             str(models.RoleManager),
		DefaultStartTime: str(""),
		ClosingStartTime: str("18:00"),
		ClosingEndTime:   str("23:30"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != models.RoleManager || updated.DefaultStartTime != nil {
		t.Fatalf("unexpected update result: role %q default start %v", updated.Role, updated.DefaultStartTime)
	}
	if start, end, ok := updated.ShiftPreset(models.ShiftClosing); !ok || start != "18:00" || end != "23:30" {
		t.Fatalf("closing preset not stored: %q-%q %v", start, end, ok)
	}

	if _, err := svc.Update(ctx, user.ID, &models.UserUpdateRequest{ClosingEndTime: str("25:00")}); !errors.Is(err, utils.ErrInvalidInput) {
		t.Fatalf("expected invalid clock, got %v", err)
	}

	users, err := svc.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
}

func TestUserService_DeleteRemovesSchedules(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestAuth(t, db))
	schedules := NewScheduleService(db)
	ctx := context.Background()

	admin, err := svc.Create(ctx, &models.UserCreateRequest{Username: "admin2", Password: "secreto1", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	worker, err := svc.Create(ctx, &models.UserCreateRequest{Username: "worker1", Password: "secreto1"})
	if err != nil {
		t.Fatalf("create worker: %v", err)
	}
	if _, err := schedules.Create(ctx, worker.ID, &models.ScheduleCreateRequest{Date: "2024-05-01", StartTime: "10:00", EndTime: "18:00"}); err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	if err := svc.Delete(ctx, admin.ID, admin.ID); !errors.Is(err, ErrSelfDelete) || !errors.Is(err, utils.ErrForbidden) {
		t.Fatalf("expected self delete to be forbidden, got %v", err)
	}
	if err := svc.Delete(ctx, worker.ID, admin.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, worker.ID, admin.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	var count int64
	db.Model(&models.Schedule{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected schedules to be removed, found %d", count)
	}
}

func TestScheduleService_PresetsAndWeek(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db, newTestAuth(t, db))
	svc := NewScheduleService(db)
	ctx := context.Background()

	ana, err := users.Create(ctx, &models.UserCreateRequest{
		Username:         "ana",
		Password:         "secreto1",
		OpeningStartTime: str("09:00"),
		OpeningEndTime:   str("14:30"),
	})
	if err != nil {
		t.Fatalf("create ana: %v", err)
	}
	luis, err := users.Create(ctx, &models.UserCreateRequest{Username: "luis", Password: "secreto1"})
	if err != nil {
		t.Fatalf("create luis: %v", err)
	}

	sc, err := svc.Create(ctx, ana.ID, &models.ScheduleCreateRequest{Date: "2024-05-15", Shift: models.ShiftOpening})
	if err != nil {
		t.Fatalf("create from preset: %v", err)
	}
	if sc.StartTime != "09:00" || sc.EndTime != "14:30" {
		t.Fatalf("preset not applied: %s-%s", sc.StartTime, sc.EndTime)
	}

	if _, err := svc.Create(ctx, luis.ID, &models.ScheduleCreateRequest{Date: "2024-05-15", Shift: models.ShiftClosing}); !errors.Is(err, ErrMissingShiftPreset) {
		t.Fatalf("expected missing preset, got %v", err)
	}
	// Turno nocturno cruza medianoche: 8 horas
	if _, err := svc.Create(ctx, luis.ID, &models.ScheduleCreateRequest{Date: "2024-05-19", StartTime: "22:00", EndTime: "06:00"}); err != nil {
		t.Fatalf("create overnight: %v", err)
	}
	// Fuera de la semana
	if _, err := svc.Create(ctx, luis.ID, &models.ScheduleCreateRequest{Date: "2024-05-20", StartTime: "10:00", EndTime: "12:00"}); err != nil {
		t.Fatalf("create next week: %v", err)
	}
	if _, err := svc.Create(ctx, 999, &models.ScheduleCreateRequest{Date: "2024-05-15", StartTime: "10:00", EndTime: "12:00"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}

	week, err := svc.Week(ctx, time.Date(2024, 5, 16, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("week: %v", err)
	}
	if week.WeekStart != "2024-05-13" || len(week.Days) != 7 {
		t.Fatalf("unexpected week %s with %d days", week.WeekStart, len(week.Days))
	}
	if week.Days[0].Weekday != "Lunes" || week.Days[6].Weekday != "Domingo" {
		t.Fatalf("week must start on Monday: %s..%s", week.Days[0].Weekday, week.Days[6].Weekday)
	}
	if week.HoursPerUser["ana"] != 5.5 || week.HoursPerUser["luis"] != 8 || week.TotalHours != 13.5 {
		t.Fatalf("unexpected hours %+v total %v", week.HoursPerUser, week.TotalHours)
	}
	if len(week.Days[2].Entries) != 1 || week.Days[2].Entries[0].Username != "ana" {
		t.Fatalf("expected ana on Wednesday, got %+v", week.Days[2].Entries)
	}

	month, err := svc.Month(ctx, 2024, time.May)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if len(month.Weeks) != 5 || month.Weeks[0][0] != nil || month.Weeks[0][2] == nil {
		t.Fatalf("unexpected May grid: %d rows", len(month.Weeks))
	}
	if month.Weeks[0][2].Date != "2024-05-01" {
		t.Fatalf("first cell should be 2024-05-01, got %s", month.Weeks[0][2].Date)
	}

	if err := svc.Delete(ctx, sc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, sc.ID); !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("expected schedule not found, got %v", err)
	}
}
