package service

import (
	"context"
	"time"

	"go-inventory-odoo/internal/cache"
	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/repository"

	"github.com/rs/zerolog"
)

const (
	dashboardCacheTTL    = 5 * time.Minute
	recentTransactionCap = 5
	topProductCap        = 5
	salesChartDays       = 7
)

type DashboardOverview struct {
	Stats              *repository.DashboardStats `json:"stats"`
	RecentTransactions []model.Transaction        `json:"recent_transactions"`
	SalesData          []repository.DailyTotal    `json:"sales_data"`
	TopProducts        []repository.ProductSales  `json:"top_products"`
}

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardOverview, error)
}

type dashboardService struct {
	txRepo            repository.TransactionRepository
	cache             cache.Cache
	lowStockThreshold int
	now               func() time.Time
	logger            zerolog.Logger
}

func NewDashboardService(txRepo repository.TransactionRepository, aggregates cache.Cache, lowStockThreshold int, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		txRepo:            txRepo,
		cache:             aggregates,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
		logger:            logger.With().Str("component", "dashboard_service").Logger(),
	}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = 7
	}
	key := cache.Key("dashboard", "movement", days)
	var movement []repository.StockMovementData
	if s.cached(ctx, key, &movement) {
		return movement, nil
	}

	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)
	movement, err := s.txRepo.GetStockMovement(startDate, endDate)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, movement)
	return movement, nil
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*DashboardOverview, error) {
	key := cache.Key("dashboard", "overview")
	var overview DashboardOverview
	if s.cached(ctx, key, &overview) {
		return &overview, nil
	}

	stats, err := s.txRepo.GetDashboardStats(s.lowStockThreshold)
	if err != nil {
		return nil, err
	}
	recent, err := s.txRepo.FindAll(repository.TransactionFilter{Limit: recentTransactionCap})
	if err != nil {
		return nil, err
	}
	endDate := s.now()
	sales, err := s.txRepo.GetDailySales(endDate.AddDate(0, 0, -salesChartDays), endDate)
	if err != nil {
		return nil, err
	}
	top, err := s.txRepo.GetTopProducts(nil, nil, topProductCap)
	if err != nil {
		return nil, err
	}

	overview = DashboardOverview{
		Stats:              stats,
		RecentTransactions: recent,
		SalesData:          sales,
		TopProducts:        top,
	}
	s.store(ctx, key, overview)
	return &overview, nil
}

func (s *dashboardService) cached(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		return false
	}
	return hit
}

func (s *dashboardService) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.SetJSON(ctx, key, value, dashboardCacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
