package service

import (
	"time"

	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	salesReportDays = 30
	topSellerCap    = 10
)

type StockStatus string

const (
	StockLow StockStatus = "low"
	StockOut StockStatus = "out"
)

type InventoryReportFilter struct {
	CategoryID  *uuid.UUID
	Status      model.ProductStatus
	StockStatus StockStatus
}

type InventoryReport struct {
	Products      []model.Product `json:"products"`
	TotalProducts int             `json:"total_products"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

type TransactionReport struct {
	Transactions []model.Transaction `json:"transactions"`
	Totals       TransactionTotals   `json:"totals"`
}

type TransactionTotals struct {
	Purchases   decimal.Decimal `json:"purchases"`
	Sales       decimal.Decimal `json:"sales"`
	Adjustments decimal.Decimal `json:"adjustments"`
}

type SalesReport struct {
	DateFrom      string                     `json:"date_from"`
	DateTo        string                     `json:"date_to"`
	DailySales    []repository.DailyTotal    `json:"daily_sales"`
	CategorySales []repository.CategoryTotal `json:"category_sales"`
	TopProducts   []repository.ProductSales  `json:"top_products"`
}

type ReportService interface {
	Inventory(filter InventoryReportFilter) (*InventoryReport, error)
	Transactions(filter repository.TransactionFilter) (*TransactionReport, error)
	Sales(from, to *time.Time) (*SalesReport, error)
}

type reportService struct {
	productRepo       repository.ProductRepository
	txRepo            repository.TransactionRepository
	lowStockThreshold int
	now               func() time.Time
}

func NewReportService(productRepo repository.ProductRepository, txRepo repository.TransactionRepository, lowStockThreshold int) ReportService {
	return &reportService{
		productRepo:       productRepo,
		txRepo:            txRepo,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

func (s *reportService) Inventory(filter InventoryReportFilter) (*InventoryReport, error) {
	productFilter := repository.ProductFilter{CategoryID: filter.CategoryID, Status: filter.Status}
	switch filter.StockStatus {
	case StockLow:
		threshold := s.lowStockThreshold
		productFilter.MaxQuantity = &threshold
	case StockOut:
		productFilter.OutOfStock = true
	}

	products, err := s.productRepo.FindAll(productFilter)
	if err != nil {
		return nil, err
	}
	report := &InventoryReport{Products: products, TotalProducts: len(products), TotalValue: decimal.Zero}
	for i := range products {
		report.TotalQuantity += products[i].Quantity
		report.TotalValue = report.TotalValue.Add(products[i].StockValue())
	}
	return report, nil
}

func (s *reportService) Transactions(filter repository.TransactionFilter) (*TransactionReport, error) {
	transactions, err := s.txRepo.FindAll(filter)
	if err != nil {
		return nil, err
	}
	report := &TransactionReport{
		Transactions: transactions,
		Totals: TransactionTotals{
			Purchases:   decimal.Zero,
			Sales:       decimal.Zero,
			Adjustments: decimal.Zero,
		},
	}
	for _, tx := range transactions {
		switch tx.Type {
		case model.TxPurchase:
			report.Totals.Purchases = report.Totals.Purchases.Add(tx.TotalPrice)
		case model.TxSale:
			report.Totals.Sales = report.Totals.Sales.Add(tx.TotalPrice)
		case model.TxAdjustment:
			report.Totals.Adjustments = report.Totals.Adjustments.Add(tx.TotalPrice)
		}
	}
	return report, nil
}

// Sales covers from..to inclusive, defaulting to the last 30 days.
func (s *reportService) Sales(from, to *time.Time) (*SalesReport, error) {
	dateTo := s.now()
	if to != nil {
		dateTo = *to
	}
	dateFrom := dateTo.AddDate(0, 0, -salesReportDays)
	if from != nil {
		dateFrom = *from
	}

	daily, err := s.txRepo.GetDailySales(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.txRepo.GetCategorySales(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	top, err := s.txRepo.GetTopProducts(&dateFrom, &dateTo, topSellerCap)
	if err != nil {
		return nil, err
	}
	return &SalesReport{
		DateFrom:      dateFrom.Format("2006-01-02"),
		DateTo:        dateTo.Format("2006-01-02"),
		DailySales:    daily,
		CategorySales: byCategory,
		TopProducts:   top,
	}, nil
}
