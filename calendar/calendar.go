// Package calendar agrupa las funciones de fecha que usan las vistas de
// horarios: inicio de semana, horas de un turno y grilla mensual.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
	ClockLayout = "15:04"
)

// Grid es una grilla mensual de 7 columnas con el lunes primero.
// Las celdas fuera del mes son nil.
type Grid [][7]*time.Time

// ParseDate interpreta YYYY-MM-DD en UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha inválida %q: %w", s, err)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseYearMonth interpreta YYYY-MM.
func ParseYearMonth(s string) (int, time.Month, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("mes inválido %q: %w", s, err)
	}
	return t.Year(), t.Month(), nil
}

// WeekStart retorna el lunes (a medianoche) de la semana de t.
// No depende del locale: time.Weekday empieza en domingo = 0.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekDays retorna los siete días de la semana de t, de lunes a domingo.
func WeekDays(t time.Time) [7]time.Time {
	var days [7]time.Time
	start := WeekStart(t)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseClock convierte HH:MM en minutos desde la medianoche.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("hora inválida %q: se espera HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("hora inválida %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("minutos inválidos %q", s)
	}
	return h*60 + m, nil
}

// HoursBetween calcula la duración de un turno en horas de reloj. Si el fin
// es anterior al inicio el turno cruza la medianoche.
func HoursBetween(start, end string) (float64, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	diff := e - s
	if diff < 0 {
		diff += 24 * 60
	}
	return float64(diff) / 60, nil
}

// MonthGrid arma la grilla del mes: las celdas iniciales quedan vacías hasta
// la columna del día 1 y la última fila se completa con celdas vacías.
func MonthGrid(year int, month time.Month) Grid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lead := (int(first.Weekday()) + 6) % 7
	total := DaysInMonth(year, month)

	var grid Grid
	var row [7]*time.Time
	col := lead
	for day := 1; day <= total; day++ {
		d := first.AddDate(0, 0, day-1)
		row[col] = &d
		col++
		if col == 7 {
			grid = append(grid, row)
			row = [7]*time.Time{}
			col = 0
		}
	}
	if col > 0 {
		grid = append(grid, row)
	}
	return grid
}
