package service

import (
	"context"
	"sync"
	"time"

	"go-inventory-odoo/internal/erpsync"
	"go-inventory-odoo/internal/events"
	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/repository"

	"github.com/google/uuid"
)

// --- Mock Repositories ---

type MockProductRepo struct {
	Products   map[uuid.UUID]*model.Product
	FindErr    error
	CreateErr  error
	ApplyErr   error
	DeleteErr  error
	Created    *model.Product
	Updated    *model.Product
	Deleted    uuid.UUID
	AppliedQty *int
	AppliedTx  *model.Transaction
	LastFilter repository.ProductFilter
	// Contended receives the product id when a caller has to wait for the lock.
	Contended chan uuid.UUID
	lock      sync.Mutex
}

func newMockProductRepo(products ...*model.Product) *MockProductRepo {
	m := &MockProductRepo{Products: map[uuid.UUID]*model.Product{}}
	for _, p := range products {
		m.Products[p.ID] = p
	}
	return m
}

func (m *MockProductRepo) Create(product *model.Product) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	product.ID = uuid.New()
	m.Created = product
	m.Products[product.ID] = product
	return nil
}

func (m *MockProductRepo) FindAll(filter repository.ProductFilter) ([]model.Product, error) {
	m.LastFilter = filter
	var out []model.Product
	for _, p := range m.Products {
		out = append(out, *p)
	}
	return out, m.FindErr
}

func (m *MockProductRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	p, ok := m.Products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *MockProductRepo) FindBySKU(sku string) (*model.Product, error) {
	for _, p := range m.Products {
		if p.SKU == sku {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockProductRepo) FindByExternalID(externalID int64) (*model.Product, error) {
	for _, p := range m.Products {
		if p.ExternalID != nil && *p.ExternalID == externalID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockProductRepo) Update(product *model.Product) error {
	m.Updated = product
	copied := *product
	m.Products[product.ID] = &copied
	return nil
}

func (m *MockProductRepo) Delete(id uuid.UUID) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Deleted = id
	delete(m.Products, id)
	return nil
}

func (m *MockProductRepo) UpsertByExternalID(product *model.Product) error { return nil }

func (m *MockProductRepo) ImagePaths() ([]string, error) { return nil, nil }

func (m *MockProductRepo) ImagePathsExcludingExternalIDs([]int64) ([]string, error) { return nil, nil }

func (m *MockProductRepo) ApplyStockTransaction(productID uuid.UUID, newQuantity int, tx *model.Transaction) error {
	if m.ApplyErr != nil {
		return m.ApplyErr
	}
	m.AppliedQty = &newQuantity
	tx.ID = uuid.New()
	tx.ProductID = productID
	m.AppliedTx = tx
	m.Products[productID].Quantity = newQuantity
	return nil
}

func (m *MockProductRepo) WithLockedProduct(id uuid.UUID, fn func(*model.Product, repository.ProductRepository) error) error {
	if !m.lock.TryLock() {
		select {
		case m.Contended <- id:
		default:
		}
		m.lock.Lock()
	}
	defer m.lock.Unlock()

	product, err := m.FindByID(id)
	if err != nil {
		return err
	}
	return fn(product, m)
}

type MockTransactionRepo struct {
	Transactions []model.Transaction
	Stats        *repository.DashboardStats
	StatsCalls   int
	LastFilter   repository.TransactionFilter
	DailyFrom    time.Time
	DailyTo      time.Time
}

func (m *MockTransactionRepo) GetStockMovement(startDate, endDate time.Time) ([]repository.StockMovementData, error) {
	return []repository.StockMovementData{{Date: endDate.Format("2006-01-02"), Inbound: 3, Outbound: 1}}, nil
}

func (m *MockTransactionRepo) GetDashboardStats(lowStockThreshold int) (*repository.DashboardStats, error) {
	m.StatsCalls++
	return m.Stats, nil
}

func (m *MockTransactionRepo) FindAll(filter repository.TransactionFilter) ([]model.Transaction, error) {
	m.LastFilter = filter
	return m.Transactions, nil
}

func (m *MockTransactionRepo) FindByID(id uuid.UUID) (*model.Transaction, error) {
	for i := range m.Transactions {
		if m.Transactions[i].ID == id {
			return &m.Transactions[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockTransactionRepo) UpsertByExternalID(*model.Transaction) error { return nil }

func (m *MockTransactionRepo) GetDailySales(startDate, endDate time.Time) ([]repository.DailyTotal, error) {
	m.DailyFrom, m.DailyTo = startDate, endDate
	return nil, nil
}

func (m *MockTransactionRepo) GetCategorySales(startDate, endDate time.Time) ([]repository.CategoryTotal, error) {
	return nil, nil
}

func (m *MockTransactionRepo) GetTopProducts(startDate, endDate *time.Time, limit int) ([]repository.ProductSales, error) {
	return nil, nil
}

type MockCategoryRepo struct {
	Categories map[uuid.UUID]*model.Category
}

func newMockCategoryRepo(categories ...*model.Category) *MockCategoryRepo {
	m := &MockCategoryRepo{Categories: map[uuid.UUID]*model.Category{}}
	for _, c := range categories {
		m.Categories[c.ID] = c
	}
	return m
}

func (m *MockCategoryRepo) FindAll() ([]model.Category, error) {
	var out []model.Category
	for _, c := range m.Categories {
		out = append(out, *c)
	}
	return out, nil
}

func (m *MockCategoryRepo) FindByID(id uuid.UUID) (*model.Category, error) {
	c, ok := m.Categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (m *MockCategoryRepo) FirstOrCreateByExternalID(int64, string, string) (*model.Category, error) {
	return nil, nil
}

// --- Mock Odoo gateways ---

type MockCatalog struct {
	CreateID  int64
	CreateErr error
	UpdateErr error
	Created   []erpsync.RemoteProductInput
	Updated   map[int64]erpsync.RemoteProductInput
}

func (m *MockCatalog) CreateProduct(_ context.Context, in erpsync.RemoteProductInput) (int64, error) {
	m.Created = append(m.Created, in)
	return m.CreateID, m.CreateErr
}

func (m *MockCatalog) UpdateProduct(_ context.Context, id int64, in erpsync.RemoteProductInput) error {
	if m.Updated == nil {
		m.Updated = map[int64]erpsync.RemoteProductInput{}
	}
	m.Updated[id] = in
	return m.UpdateErr
}

type stockCall struct {
	ProductID int64
	Quantity  int
	Reason    string
}

type MockStock struct {
	Err   error
	Calls []stockCall
	// OnCall runs after the call is recorded, before it returns.
	OnCall func(call int)
}

func (m *MockStock) UpdateStock(_ context.Context, productID int64, quantity int, reason string) error {
	m.Calls = append(m.Calls, stockCall{productID, quantity, reason})
	if m.OnCall != nil {
		m.OnCall(len(m.Calls))
	}
	return m.Err
}

type MockImages struct {
	Key   string
	Err   error
	Calls int
}

func (m *MockImages) Process(externalID int64, payload, fallback string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return fallback, m.Err
	}
	return m.Key, nil
}

type MockPublisher struct {
	Events []events.Event
}

func (m *MockPublisher) Publish(_ context.Context, event events.Event) error {
	m.Events = append(m.Events, event)
	return nil
}

// MockCache is an in-memory cache.Cache.
type MockCache struct {
	Values        map[string]interface{}
	Invalidations int
}

func newMockCache() *MockCache { return &MockCache{Values: map[string]interface{}{}} }

func (m *MockCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	v, ok := m.Values[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *DashboardOverview:
		*d = v.(DashboardOverview)
	case *[]repository.StockMovementData:
		*d = v.([]repository.StockMovementData)
	}
	return true, nil
}

func (m *MockCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.Values[key] = value
	return nil
}

func (m *MockCache) Invalidate(context.Context) error {
	m.Invalidations++
	m.Values = map[string]interface{}{}
	return nil
}

// --- Fixtures ---

func linkedProduct(externalID int64, quantity int) *model.Product {
	id := externalID
	p := &model.Product{Name: "Widget", SKU: "W-1", Quantity: quantity, ExternalID: &id, Status: model.ProductActive}
	p.ID = uuid.New()
	return p
}

func importedCategory(externalID int64) *model.Category {
	id := externalID
	c := &model.Category{Name: "Widgets", ExternalID: &id}
	c.ID = uuid.New()
	return c
}
