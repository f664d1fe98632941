package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/NicolasR-dev/dinocars-web/calendar"
	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var weekdayNames = [7]string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"}

type ScheduleService struct {
	db *gorm.DB
}

func NewScheduleService(db *gorm.DB) *ScheduleService {
	return &ScheduleService{db: db}
}

// Create asigna un turno. Sin horas explícitas usa el turno predefinido
// indicado en shift.
func (s *ScheduleService) Create(ctx context.Context, userID uint, req *models.ScheduleCreateRequest) (*models.Schedule, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	start, end := req.StartTime, req.EndTime
	if start == "" && end == "" && req.Shift != "" {
		var ok bool
		start, end, ok = user.ShiftPreset(req.Shift)
		if !ok {
			return nil, ErrMissingShiftPreset
		}
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("%w: start_time y end_time son requeridos", utils.ErrInvalidInput)
	}
	if _, err := calendar.HoursBetween(start, end); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
	}
	if _, err := calendar.ParseDate(req.Date); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
	}

	schedule := models.Schedule{
		UserID:    user.ID,
		Date:      req.Date,
		StartTime: start,
		EndTime:   end,
	}
	if err := s.db.WithContext(ctx).Create(&schedule).Error; err != nil {
		return nil, fmt.Errorf("creando turno: %w", err)
	}

	utils.LogBusinessEvent("schedule_created", user.ID, map[string]interface{}{
		"schedule_id": schedule.ID,
		"date":        schedule.Date,
		"shift":       req.Shift,
	})
	return &schedule, nil
}

// Delete elimina un turno
func (s *ScheduleService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Schedule{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// between carga los turnos con fecha en [from, to] agrupados por fecha
func (s *ScheduleService) between(ctx context.Context, from, to string) (map[string][]models.ScheduleEntry, error) {
	var schedules []models.Schedule
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC").Order("start_time ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}

	byDate := make(map[string][]models.ScheduleEntry)
	for _, sc := range schedules {
		hours, err := calendar.HoursBetween(sc.StartTime, sc.EndTime)
		if err != nil {
			utils.LoggerFrom(ctx).Warn("Turno con horas inválidas", zap.Uint("schedule_id", sc.ID), zap.Error(err))
		}
		entry := models.ScheduleEntry{
			ID:        sc.ID,
			UserID:    sc.UserID,
			Date:      sc.Date,
			StartTime: sc.StartTime,
			EndTime:   sc.EndTime,
			Hours:     hours,
		}
		if sc.User != nil {
			entry.Username = sc.User.Username
		}
		byDate[sc.Date] = append(byDate[sc.Date], entry)
	}
	for _, entries := range byDate {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].StartTime < entries[j].StartTime })
	}
	return byDate, nil
}

// Month arma la grilla mensual con los turnos de cada día
func (s *ScheduleService) Month(ctx context.Context, year int, month time.Month) (*models.MonthView, error) {
	grid := calendar.MonthGrid(year, month)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	byDate, err := s.between(ctx, calendar.FormatDate(first), calendar.FormatDate(last))
	if err != nil {
		return nil, err
	}

	view := &models.MonthView{Year: year, Month: int(month), Weeks: make([][7]*models.DaySchedule, len(grid))}
	for r, row := range grid {
		for c, cell := range row {
			if cell == nil {
				continue
			}
			date := calendar.FormatDate(*cell)
			entries := byDate[date]
			if entries == nil {
				entries = []models.ScheduleEntry{}
			}
			view.Weeks[r][c] = &models.DaySchedule{
				Date:    date,
				Weekday: weekdayNames[c],
				Entries: entries,
			}
		}
	}
	return view, nil
}

// Week retorna los siete días de la semana de date con las horas por usuario
func (s *ScheduleService) Week(ctx context.Context, date time.Time) (*models.WeekView, error) {
	days := calendar.WeekDays(date)
	byDate, err := s.between(ctx, calendar.FormatDate(days[0]), calendar.FormatDate(days[6]))
	if err != nil {
		return nil, err
	}

	view := &models.WeekView{
		WeekStart:    calendar.FormatDate(days[0]),
		Days:         make([]models.DaySchedule, 0, 7),
		HoursPerUser: make(map[string]float64),
	}
	for i, d := range days {
		key := calendar.FormatDate(d)
		entries := byDate[key]
		if entries == nil {
			entries = []models.ScheduleEntry{}
		}
		for _, e := range entries {
			view.HoursPerUser[e.Username] += e.Hours
			view.TotalHours += e.Hours
		}
		view.Days = append(view.Days, models.DaySchedule{
			Date:    key,
			Weekday: weekdayNames[i],
			Entries: entries,
		})
	}
	return view, nil
}
