package services

import (
	"context"

	"github.com/NicolasR-dev/dinocars-web/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatsService arma los datos del dashboard y sus gráficos
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// Dashboard calcula ingresos y vueltas. El ingreso de un día es su
// daily_cash_generated; el promedio divide por días distintos.
func (s *StatsService) Dashboard(ctx context.Context, f models.StatsFilter) (*models.DashboardStats, error) {
	q := s.db.WithContext(ctx).Model(&models.DailyRecord{})
	if f.From != "" {
		q = q.Where("date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("date <= ?", f.To)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var records []models.DailyRecord
	if err := q.Order("date ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		TotalRevenue:       decimal.Zero,
		AverageDailyIncome: decimal.Zero,
		DailyStats:         []models.DailyStats{},
	}

	index := make(map[string]int)
	for _, r := range records {
		stats.RecordsCount++
		stats.TotalRides += r.RidesToday
		stats.TotalRevenue = stats.TotalRevenue.Add(r.DailyCashGenerated)

		i, ok := index[r.Date]
		if !ok {
			i = len(stats.DailyStats)
			index[r.Date] = i
			stats.DailyStats = append(stats.DailyStats, models.DailyStats{Date: r.Date, TotalIncome: decimal.Zero})
		}
		stats.DailyStats[i].TotalIncome = stats.DailyStats[i].TotalIncome.Add(r.DailyCashGenerated)
		stats.DailyStats[i].TotalRides += r.RidesToday
	}

	if days := len(stats.DailyStats); days > 0 {
		stats.AverageDailyIncome = stats.TotalRevenue.Div(decimal.NewFromInt(int64(days))).Round(2)
	}
	return stats, nil
}
