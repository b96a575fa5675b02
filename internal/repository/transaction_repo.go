package repository

import (
	"time"

	"go-inventory-odoo/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionFilter narrows FindAll. Dates are inclusive calendar days.
type TransactionFilter struct {
	ProductID *uuid.UUID
	Type      model.TransactionType
	From      *time.Time
	To        *time.Time
	Limit     int
}

type TransactionRepository interface {
	GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(lowStockThreshold int) (*DashboardStats, error)
	FindAll(filter TransactionFilter) ([]model.Transaction, error)
	FindByID(id uuid.UUID) (*model.Transaction, error)
	UpsertByExternalID(transaction *model.Transaction) error
	GetDailySales(startDate, endDate time.Time) ([]DailyTotal, error)
	GetCategorySales(startDate, endDate time.Time) ([]CategoryTotal, error)
	GetTopProducts(startDate, endDate *time.Time, limit int) ([]ProductSales, error)
}

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats untuk overview stats
type DashboardStats struct {
	TotalProducts int64           `json:"total_products"`
	LowStockCount int64           `json:"low_stock_count"`
	StockValue    decimal.Decimal `json:"stock_value"`
}

type DailyTotal struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

type ProductSales struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// Sales are counted by magnitude whatever sign the row was recorded with.
const (
	inboundExpr  = "CASE WHEN type = 'purchase' THEN ABS(quantity) WHEN type = 'adjustment' AND quantity > 0 THEN quantity ELSE 0 END"
	outboundExpr = "CASE WHEN type = 'sale' THEN ABS(quantity) WHEN type = 'adjustment' AND quantity < 0 THEN -quantity ELSE 0 END"
)

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	// Query untuk aggregate transactions per hari
	rows, err := r.db.Model(&model.Transaction{}).
		Select(`
			TO_CHAR(DATE(created_at), 'YYYY-MM-DD') as date,
			COALESCE(SUM(` + inboundExpr + `), 0) as inbound,
			COALESCE(SUM(` + outboundExpr + `), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}

func (r *transactionRepo) FindAll(filter TransactionFilter) ([]model.Transaction, error) {
	var transactions []model.Transaction
	query := r.db.Preload("Product")
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		query = query.Where("DATE(created_at) >= ?", filter.From.Format("2006-01-02"))
	}
	if filter.To != nil {
		query = query.Where("DATE(created_at) <= ?", filter.To.Format("2006-01-02"))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	err := query.Order("created_at DESC").Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByID(id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	if err := r.db.Preload("Product").First(&transaction, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &transaction, nil
}

// UpsertByExternalID inserts a synced move or overwrites the row already
// holding its external id.
func (r *transactionRepo) UpsertByExternalID(transaction *model.Transaction) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Transaction
		err := tx.Where("external_id = ?", *transaction.ExternalID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Omit("Product").Create(transaction).Error
		}
		if err != nil {
			return err
		}

		transaction.ID = existing.ID
		transaction.CreatedAt = existing.CreatedAt
		return tx.Model(&existing).Updates(map[string]interface{}{
			"product_id":  transaction.ProductID,
			"type":        transaction.Type,
			"quantity":    transaction.Quantity,
			"unit_price":  transaction.UnitPrice,
			"total_price": transaction.TotalPrice,
			"reference":   transaction.Reference,
			"notes":       transaction.Notes,
			"updated_by":  transaction.UpdatedBy,
		}).Error
	})
}

func (r *transactionRepo) GetDashboardStats(lowStockThreshold int) (*DashboardStats, error) {
	var stats DashboardStats

	// Total Products
	if err := r.db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}

	// Low Stock Count
	if err := r.db.Model(&model.Product{}).Where("quantity < ?", lowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	// Stock value (SUM of quantity * price)
	if err := r.db.Model(&model.Product{}).Select("COALESCE(SUM(quantity * price), 0)").Scan(&stats.StockValue).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *transactionRepo) GetDailySales(startDate, endDate time.Time) ([]DailyTotal, error) {
	var results []DailyTotal
	err := r.db.Model(&model.Transaction{}).
		Select("TO_CHAR(DATE(created_at), 'YYYY-MM-DD') as date, COALESCE(SUM(ABS(total_price)), 0) as total").
		Where("type = ?", model.TxSale).
		Where("DATE(created_at) BETWEEN ? AND ?", startDate.Format("2006-01-02"), endDate.Format("2006-01-02")).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&results).Error
	return results, err
}

func (r *transactionRepo) GetCategorySales(startDate, endDate time.Time) ([]CategoryTotal, error) {
	var results []CategoryTotal
	err := r.db.Model(&model.Transaction{}).
		Select("categories.name as category, COALESCE(SUM(ABS(transactions.total_price)), 0) as total").
		Joins("JOIN products ON products.id = transactions.product_id").
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("transactions.type = ?", model.TxSale).
		Where("DATE(transactions.created_at) BETWEEN ? AND ?", startDate.Format("2006-01-02"), endDate.Format("2006-01-02")).
		Group("categories.name").
		Order("total DESC").
		Scan(&results).Error
	return results, err
}

// GetTopProducts ranks products by sold quantity. Nil dates leave that side open.
func (r *transactionRepo) GetTopProducts(startDate, endDate *time.Time, limit int) ([]ProductSales, error) {
	var results []ProductSales
	query := r.db.Model(&model.Transaction{}).
		Select(`transactions.product_id as product_id, products.name as name, products.sku as sku,
			COALESCE(SUM(ABS(transactions.quantity)), 0) as total_quantity,
			COALESCE(SUM(ABS(transactions.total_price)), 0) as total_price`).
		Joins("JOIN products ON products.id = transactions.product_id").
		Where("transactions.type = ?", model.TxSale)
	if startDate != nil {
		query = query.Where("DATE(transactions.created_at) >= ?", startDate.Format("2006-01-02"))
	}
	if endDate != nil {
		query = query.Where("DATE(transactions.created_at) <= ?", endDate.Format("2006-01-02"))
	}
	err := query.
		Group("transactions.product_id, products.name, products.sku").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&results).Error
	return results, err
}
