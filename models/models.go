package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Los montos viajan como números JSON, no como strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Roles del sistema
const (
	RoleWorker  = "worker"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// ValidRole indica si el rol es uno de los tres conocidos
func ValidRole(role string) bool {
	switch role {
	case RoleWorker, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User representa los usuarios del sistema
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"size:100;not null;uniqueIndex" json:"username"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Role         string `gorm:"size:20;not null;default:worker" json:"role"`

	// Turnos predefinidos (HH:MM)
	DefaultStartTime *string `gorm:"size:5" json:"default_start_time"`
	DefaultEndTime   *string `gorm:"size:5" json:"default_end_time"`
	OpeningStartTime *string `gorm:"size:5" json:"opening_start_time"`
	OpeningEndTime   *string `gorm:"size:5" json:"opening_end_time"`
	ClosingStartTime *string `gorm:"size:5" json:"closing_start_time"`
	ClosingEndTime   *string `gorm:"size:5" json:"closing_end_time"`

	CreatedAt time.Time `json:"created_at"`

	// Relaciones
	Schedules []Schedule `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"schedules"`
}

// ShiftPreset retorna el turno predefinido con ese nombre, si está completo
func (u *User) ShiftPreset(shift string) (start, end string, ok bool) {
	var s, e *string
	switch shift {
	case ShiftDefault:
		s, e = u.DefaultStartTime, u.DefaultEndTime
	case ShiftOpening:
		s, e = u.OpeningStartTime, u.OpeningEndTime
	case ShiftClosing:
		s, e = u.ClosingStartTime, u.ClosingEndTime
	default:
		return "", "", false
	}
	if s == nil || e == nil || *s == "" || *e == "" {
		return "", "", false
	}
	return *s, *e, true
}

// Nombres de turnos predefinidos
const (
	ShiftDefault = "default"
	ShiftOpening = "opening"
	ShiftClosing = "closing"
)

// Schedule es un turno asignado a un usuario en una fecha
type Schedule struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	Date      string `gorm:"size:10;not null;index" json:"date"`
	StartTime string `gorm:"size:5;not null" json:"start_time"`
	EndTime   string `gorm:"size:5;not null" json:"end_time"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// DailyRecord es el cierre de caja de un día
type DailyRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Date      string    `gorm:"size:10;not null;index" json:"date"`
	CreatedAt time.Time `json:"created_at"`

	WorkerName  string `gorm:"size:100" json:"worker_name"`
	SubmittedBy string `gorm:"size:100" json:"submitted_by"`

	// Calcular Vueltas
	TotalAccumulatedPrev  int `gorm:"not null;default:0" json:"total_accumulated_prev"`
	TotalAccumulatedToday int `gorm:"not null;default:0" json:"total_accumulated_today"`
	RidesToday            int `gorm:"not null;default:0" json:"rides_today"`

	// Cuadrar Caja
	AdminRides         int             `gorm:"not null;default:0" json:"admin_rides"`
	EffectiveRides     int             `gorm:"not null;default:0" json:"effective_rides"`
	ExpectedIncome     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"expected_income"`
	CashWithdrawn      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"cash_withdrawn"`
	CashInBox          decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"cash_in_box"`
	CardPayments       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"card_payments"`
	TotalCounted       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_counted"`
	Status             string          `gorm:"size:10;not null" json:"status"`
	Difference         decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"difference"`
	DailyCashGenerated decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"daily_cash_generated"`
	ToysSoldDetails    string          `gorm:"type:text" json:"toys_sold_details"`
	ToysSoldTotal      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"toys_sold_total"`
}

// DTOs para requests

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required,max=100"`
	Password string `json:"password" form:"password" binding:"required,max=128"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RidesCalculationRequest struct {
	DinoCounts           []int `json:"dino_counts" binding:"required,max=6,dive,min=0"`
	TotalAccumulatedPrev *int  `json:"total_accumulated_prev" binding:"omitempty,min=0"`
}

type RidesCalculationResponse struct {
	TotalToday           int `json:"total_today"`
	RidesToday           int `json:"rides_today"`
	TotalAccumulatedPrev int `json:"total_accumulated_prev"`
}

// DailyRecordCreateRequest son los datos crudos de un cierre. Los campos
// derivados se calculan en el servidor; si el cliente los envía se ignoran.
type DailyRecordCreateRequest struct {
	Date            string          `json:"date" binding:"required,isodate"`
	WorkerName      string          `json:"worker_name" binding:"max=100"`
	RidesToday      int             `json:"rides_today" binding:"min=0"`
	AdminRides      int             `json:"admin_rides" binding:"min=0"`
	CashWithdrawn   decimal.Decimal `json:"cash_withdrawn"`
	CashInBox       decimal.Decimal `json:"cash_in_box"`
	CardPayments    decimal.Decimal `json:"card_payments"`
	ToysSoldTotal   decimal.Decimal `json:"toys_sold_total"`
	ToysSoldDetails string          `json:"toys_sold_details" binding:"max=2000"`
}

// DailyRecordUpdateRequest es una edición parcial: solo se aplican los campos presentes
type DailyRecordUpdateRequest struct {
	Date                  *string          `json:"date" binding:"omitempty,isodate"`
	WorkerName            *string          `json:"worker_name" binding:"omitempty,max=100"`
	TotalAccumulatedPrev  *int             `json:"total_accumulated_prev" binding:"omitempty,min=0"`
	TotalAccumulatedToday *int             `json:"total_accumulated_today" binding:"omitempty,min=0"`
	RidesToday            *int             `json:"rides_today" binding:"omitempty,min=0"`
	AdminRides            *int             `json:"admin_rides" binding:"omitempty,min=0"`
	CashWithdrawn         *decimal.Decimal `json:"cash_withdrawn"`
	CashInBox             *decimal.Decimal `json:"cash_in_box"`
	CardPayments          *decimal.Decimal `json:"card_payments"`
	ToysSoldTotal         *decimal.Decimal `json:"toys_sold_total"`
	ToysSoldDetails       *string          `json:"toys_sold_details" binding:"omitempty,max=2000"`
}

// Campos numéricos de los formularios de cierre; un string vacío vale 0
var recordNumericFields = []string{
	"total_accumulated_prev", "total_accumulated_today",
	"rides_today", "admin_rides",
	"cash_withdrawn", "cash_in_box", "card_payments", "toys_sold_total",
}

// blankNumbersToZero reemplaza "" (o solo espacios) por 0 en los campos numéricos
func blankNumbersToZero(data []byte) ([]byte, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return data, err
	}
	changed := false
	for _, field := range recordNumericFields {
		v, ok := raw[field]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(v, &s) == nil && strings.TrimSpace(s) == "" {
			raw[field] = json.RawMessage("0")
			changed = true
		}
	}
	if !changed {
		return data, nil
	}
	return json.Marshal(raw)
}

func (r *DailyRecordCreateRequest) UnmarshalJSON(data []byte) error {
	data, err := blankNumbersToZero(data)
	if err != nil {
		return err
	}
	type plain DailyRecordCreateRequest
	return json.Unmarshal(data, (*plain)(r))
}

// En una edición un campo vacío también cuenta como presente con valor 0
func (r *DailyRecordUpdateRequest) UnmarshalJSON(data []byte) error {
	data, err := blankNumbersToZero(data)
	if err != nil {
		return err
	}
	type plain DailyRecordUpdateRequest
	return json.Unmarshal(data, (*plain)(r))
}

// RecordPreview es el resultado de "Calcular Cierre" sin guardar
type RecordPreview struct {
	Date                 string          `json:"date"`
	TotalAccumulatedPrev int             `json:"total_accumulated_prev"`
	EffectiveRides       int             `json:"effective_rides"`
	ExpectedIncome       decimal.Decimal `json:"expected_income"`
	TotalCounted         decimal.Decimal `json:"total_counted"`
	DailyCashGenerated   decimal.Decimal `json:"daily_cash_generated"`
	Difference           decimal.Decimal `json:"difference"`
	Status               string          `json:"status"`
	PreviousClosingCash  decimal.Decimal `json:"previous_closing_cash"`
	BaselineSource       string          `json:"baseline_source"`
}

type RecordFilter struct {
	Date  string `form:"date" binding:"omitempty,isodate"`
	Month string `form:"month" binding:"omitempty,yearmonth"`
	Skip  int    `form:"skip" binding:"omitempty,min=0"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

type MonthSummary struct {
	Month              string          `json:"month"`
	RecordsCount       int             `json:"records_count"`
	TotalCashGenerated decimal.Decimal `json:"total_cash_generated"`
	TotalRides         int             `json:"total_rides"`
	CuadraCount        int             `json:"cuadra_count"`
	ExcedenteCount     int             `json:"excedente_count"`
	FaltanteCount      int             `json:"faltante_count"`
}

type UserCreateRequest struct {
	Username         string  `json:"username" binding:"required,min=3,max=100"`
	Password         string  `json:"password" binding:"required,min=6,max=128"`
	Role             string  `json:"role" binding:"omitempty,oneof=worker manager admin"`
	DefaultStartTime *string `json:"default_start_time" binding:"omitempty,hhmm"`
	DefaultEndTime   *string `json:"default_end_time" binding:"omitempty,hhmm"`
	OpeningStartTime *string `json:"opening_start_time" binding:"omitempty,hhmm"`
	OpeningEndTime   *string `json:"opening_end_time" binding:"omitempty,hhmm"`
	ClosingStartTime *string `json:"closing_start_time" binding:"omitempty,hhmm"`
	ClosingEndTime   *string `json:"closing_end_time" binding:"omitempty,hhmm"`
}

type UserUpdateRequest struct {
	Username         *string `json:"username" binding:"omitempty,min=3,max=100"`
	Password         *string `json:"password" binding:"omitempty,min=6,max=128"`
	Role             *string `json:"role" binding:"omitempty,oneof=worker manager admin"`
	DefaultStartTime *string `json:"default_start_time" binding:"omitempty,hhmm"`
	DefaultEndTime   *string `json:"default_end_time" binding:"omitempty,hhmm"`
	OpeningStartTime *string `json:"opening_start_time" binding:"omitempty,hhmm"`
	OpeningEndTime   *string `json:"opening_end_time" binding:"omitempty,hhmm"`
	ClosingStartTime *string `json:"closing_start_time" binding:"omitempty,hhmm"`
	ClosingEndTime   *string `json:"closing_end_time" binding:"omitempty,hhmm"`
}

// ScheduleCreateRequest acepta horas explícitas o el nombre de un turno predefinido del usuario
type ScheduleCreateRequest struct {
	Date      string `json:"date" binding:"required,isodate"`
	StartTime string `json:"start_time" binding:"omitempty,hhmm"`
	EndTime   string `json:"end_time" binding:"omitempty,hhmm"`
	Shift     string `json:"shift" binding:"omitempty,oneof=default opening closing"`
}

// Vistas de horarios

type ScheduleEntry struct {
	ID        uint    `json:"id"`
	UserID    uint    `json:"user_id"`
	Username  string  `json:"username"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Hours     float64 `json:"hours"`
}

type DaySchedule struct {
	Date    string          `json:"date"`
	Weekday string          `json:"weekday"`
	Entries []ScheduleEntry `json:"entries"`
}

type WeekView struct {
	WeekStart    string             `json:"week_start"`
	Days         []DaySchedule      `json:"days"`
	HoursPerUser map[string]float64 `json:"hours_per_user"`
	TotalHours   float64            `json:"total_hours"`
}

// MonthView tiene filas de 7 celdas (lunes primero); las celdas fuera del mes son null
type MonthView struct {
	Year  int               `json:"year"`
	Month int               `json:"month"`
	Weeks [][7]*DaySchedule `json:"weeks"`
}

// Estadísticas

type DailyStats struct {
	Date        string          `json:"date"`
	TotalIncome decimal.Decimal `json:"total_income"`
	TotalRides  int             `json:"total_rides"`
}

type DashboardStats struct {
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	TotalRides         int             `json:"total_rides"`
	RecordsCount       int             `json:"records_count"`
	AverageDailyIncome decimal.Decimal `json:"average_daily_income"`
	DailyStats         []DailyStats    `json:"daily_stats"`
}

type StatsFilter struct {
	From   string `form:"from" binding:"omitempty,isodate"`
	To     string `form:"to" binding:"omitempty,isodate"`
	Status string `form:"status" binding:"omitempty,oneof=CUADRA EXCEDENTE FALTANTE"`
}

// BackupInfo describe un respaldo disponible
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportResult resume una importación de planilla
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped"`
	Errors   []string `json:"errors"`
}
