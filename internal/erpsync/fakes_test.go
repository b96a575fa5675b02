package erpsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/repository"
	"go-inventory-odoo/internal/storage"

	"github.com/google/uuid"
)

// --- Fake Odoo caller ---

type rpcCall struct {
	Model  string
	Method string
	Args   []any
	Kwargs map[string]any
}

type fakeCaller struct {
	mu       sync.Mutex
	calls    []rpcCall
	handlers map[string]func(args []any) (json.RawMessage, error)
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{handlers: map[string]func(args []any) (json.RawMessage, error){}}
}

func (f *fakeCaller) on(model, method string, h func(args []any) (json.RawMessage, error)) {
	f.handlers[model+"."+method] = h
}

func (f *fakeCaller) reply(model, method, body string) {
	f.on(model, method, func([]any) (json.RawMessage, error) { return json.RawMessage(body), nil })
}

func (f *fakeCaller) Execute(_ context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rpcCall{Model: model, Method: method, Args: args, Kwargs: kwargs})
	f.mu.Unlock()
	h, ok := f.handlers[model+"."+method]
	if !ok {
		return nil, fmt.Errorf("unexpected call %s.%s", model, method)
	}
	return h(args)
}

func (f *fakeCaller) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Model + "." + c.Method
	}
	return out
}

func (f *fakeCaller) find(model, method string) (rpcCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.Model == model && c.Method == method {
			return c, true
		}
	}
	return rpcCall{}, false
}

// --- In-memory stores ---

type memProducts struct {
	byExternal map[int64]*model.Product
	upserts    int
	failOn     map[int64]error
}

func newMemProducts() *memProducts {
	return &memProducts{byExternal: map[int64]*model.Product{}, failOn: map[int64]error{}}
}

func (m *memProducts) FindByExternalID(externalID int64) (*model.Product, error) {
	p, ok := m.byExternal[externalID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *memProducts) UpsertByExternalID(product *model.Product) error {
	if err := m.failOn[*product.ExternalID]; err != nil {
		return err
	}
	m.upserts++
	if existing, ok := m.byExternal[*product.ExternalID]; ok {
		product.ID = existing.ID
		product.CreatedAt = existing.CreatedAt
	} else if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	copied := *product
	m.byExternal[*product.ExternalID] = &copied
	return nil
}

func (m *memProducts) ImagePaths() ([]string, error) {
	return m.ImagePathsExcludingExternalIDs(nil)
}

func (m *memProducts) ImagePathsExcludingExternalIDs(externalIDs []int64) ([]string, error) {
	skip := map[int64]bool{}
	for _, id := range externalIDs {
		skip[id] = true
	}
	var out []string
	for id, p := range m.byExternal {
		if !skip[id] && p.ImagePath != "" {
			out = append(out, p.ImagePath)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memCategories struct {
	byExternal map[int64]*model.Category
	created    int
}

func newMemCategories() *memCategories {
	return &memCategories{byExternal: map[int64]*model.Category{}}
}

func (m *memCategories) FirstOrCreateByExternalID(externalID int64, name, description string) (*model.Category, error) {
	if c, ok := m.byExternal[externalID]; ok {
		return c, nil
	}
	id := externalID
	c := &model.Category{Name: name, Description: description, ExternalID: &id}
	c.ID = uuid.New()
	m.byExternal[externalID] = c
	m.created++
	return c, nil
}

type memTransactions struct {
	byExternal map[int64]*model.Transaction
}

func newMemTransactions() *memTransactions {
	return &memTransactions{byExternal: map[int64]*model.Transaction{}}
}

func (m *memTransactions) UpsertByExternalID(tx *model.Transaction) error {
	copied := *tx
	m.byExternal[*tx.ExternalID] = &copied
	return nil
}

// countingStore counts writes on top of a real store.
type countingStore struct {
	storage.ImageStore
	puts    int
	failPut error
}

func (s *countingStore) Put(key string, data []byte) error {
	if s.failPut != nil {
		return s.failPut
	}
	s.puts++
	return s.ImageStore.Put(key, data)
}

var errBoom = errors.New("boom")

func newProductWithImage(externalID int64, imagePath string) *model.Product {
	id := externalID
	p := &model.Product{Name: "existing", SKU: fmt.Sprintf("SKU-%d", id), ImagePath: imagePath, ExternalID: &id}
	p.ID = uuid.New()
	return p
}

// testContext returns a context canceled when the test finishes, like t.Context on Go 1.24+.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
