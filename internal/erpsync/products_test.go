package erpsync

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/storage"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productSyncFixture struct {
	rpc        *fakeCaller
	products   *memProducts
	categories *memCategories
	store      *countingStore
	sync       *ProductSync
}

func newProductSyncFixture(records ...string) *productSyncFixture {
	f := &productSyncFixture{
		rpc:        newFakeCaller(),
		products:   newMemProducts(),
		categories: newMemCategories(),
		store:      &countingStore{ImageStore: storage.NewFileStoreFs(afero.NewMemMapFs())},
	}
	f.setRecords(records...)
	f.sync = NewProductSync(
		NewCatalog(f.rpc),
		f.products,
		NewCategoryMapper(f.categories),
		NewImageReconciler(f.store, zerolog.Nop()),
		0,
		zerolog.Nop(),
	)
	f.sync.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f *productSyncFixture) setRecords(records ...string) {
	body := "["
	for i, r := range records {
		if i > 0 {
			body += ","
		}
		body += r
	}
	f.rpc.reply(modelProduct, "search_read", body+"]")
}

func productRecord(id int64, code string, qty float64, categID int64, categName, image string) string {
	codeJSON := "false"
	if code != "" {
		codeJSON = fmt.Sprintf("%q", code)
	}
	imageJSON := "false"
	if image != "" {
		imageJSON = fmt.Sprintf("%q", image)
	}
	return fmt.Sprintf(`{"id":%d,"name":"Product %d","default_code":%s,"list_price":12.5,"standard_price":7.25,`+
		`"qty_available":%v,"categ_id":[%d,%q],"description":false,"barcode":false,"image_1920":%s}`,
		id, id, codeJSON, qty, categID, categName, imageJSON)
}

func TestProductSync_CreatesProductAndCategory(t *testing.T) {
	f := newProductSyncFixture(productRecord(42, "W-42", 5, 9, "Widgets", ""))

	result, err := f.sync.Sync(testContext(t))

	require.NoError(t, err)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Upserted)

	p := f.products.byExternal[42]
	require.NotNil(t, p)
	assert.Equal(t, "Product 42", p.Name)
	assert.Equal(t, "W-42", p.SKU)
	assert.Equal(t, 5, p.Quantity)
	assert.Equal(t, "12.5", p.Price.String())
	assert.Equal(t, "7.25", p.Cost.String())
	assert.Equal(t, model.ProductActive, p.Status)
	assert.Equal(t, "", p.ImagePath)
	assert.Equal(t, SyncActor, p.UpdatedBy)

	c := f.categories.byExternal[9]
	require.NotNil(t, c)
	assert.Equal(t, "Widgets", c.Name)
	assert.Equal(t, model.CategoryImportDescription, c.Description)
	assert.Equal(t, c.ID, *p.CategoryID)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(p.RemoteData, &snap))
	assert.Equal(t, float64(42), snap["id"])

	call, ok := f.rpc.find(modelProduct, "search_read")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"limit": DefaultProductLimit, "offset": 0}, call.Kwargs)
}

func TestProductSync_SecondRunIsStable(t *testing.T) {
	payload := encode("image-bytes")
	f := newProductSyncFixture(
		productRecord(42, "W-42", 5, 9, "Widgets", payload),
		productRecord(43, "W-43", 1, 9, "Widgets", ""),
	)

	_, err := f.sync.Sync(testContext(t))
	require.NoError(t, err)
	firstID := f.products.byExternal[42].ID
	firstImage := f.products.byExternal[42].ImagePath

	result, err := f.sync.Sync(testContext(t))
	require.NoError(t, err)

	assert.Len(t, f.products.byExternal, 2, "no duplicate products")
	assert.Len(t, f.categories.byExternal, 1, "no duplicate categories")
	assert.Equal(t, 1, f.categories.created)
	assert.Equal(t, firstID, f.products.byExternal[42].ID)
	assert.Equal(t, firstImage, f.products.byExternal[42].ImagePath)
	assert.Equal(t, 1, f.store.puts, "unchanged image is not rewritten")
	assert.Empty(t, result.ImagesDeleted)
}

func TestProductSync_FallbackSKUAndNegativeQuantity(t *testing.T) {
	f := newProductSyncFixture(productRecord(77, "", -3, 2, "Misc", ""))

	_, err := f.sync.Sync(testContext(t))

	require.NoError(t, err)
	p := f.products.byExternal[77]
	require.NotNil(t, p)
	assert.Equal(t, "ODOO-77", p.SKU)
	assert.Equal(t, 0, p.Quantity)
}

func TestProductSync_BadRecordDoesNotSinkBatch(t *testing.T) {
	f := newProductSyncFixture()
	f.products.failOn[52] = errBoom
	f.setRecords(
		`{"id":"not-a-number"}`,
		`{"id":50,"name":"No category","categ_id":false}`,
		productRecord(51, "OK-51", 2, 3, "Tools", ""),
		productRecord(52, "FAIL-52", 2, 3, "Tools", ""),
	)

	result, err := f.sync.Sync(testContext(t))

	require.NoError(t, err)
	assert.Equal(t, 4, result.Fetched)
	assert.Equal(t, 1, result.Upserted)
	assert.Equal(t, 3, result.Failed)
	assert.Contains(t, f.products.byExternal, int64(51))
}

func TestProductSync_FetchFailure(t *testing.T) {
	f := newProductSyncFixture()
	f.rpc.on(modelProduct, "search_read", func([]any) (json.RawMessage, error) { return nil, errBoom })
	require.NoError(t, f.store.ImageStore.Put("products/odoo_product_1_00000000000000000000000000000000.png", []byte("x")))

	_, err := f.sync.Sync(testContext(t))

	assert.ErrorIs(t, err, ErrFetchFailed)
	keys, _ := f.store.List(ImageDir)
	assert.Len(t, keys, 1, "a failed fetch deletes nothing")
}

func TestProductSync_EmptyCatalogIsSuccess(t *testing.T) {
	f := newProductSyncFixture()

	result, err := f.sync.Sync(testContext(t))

	require.NoError(t, err)
	assert.Zero(t, result.Fetched)
}

func TestProductSync_ImageCleanup(t *testing.T) {
	f := newProductSyncFixture(productRecord(42, "W-42", 5, 9, "Widgets", encode("new")))

	// 42 currently points at an old image; 99 is not in this round.
	f.products.byExternal[42] = newProductWithImage(42, "products/odoo_product_42_11111111111111111111111111111111.png")
	f.products.byExternal[99] = newProductWithImage(99, "products/odoo_product_99_22222222222222222222222222222222.png")
	for _, key := range []string{
		f.products.byExternal[42].ImagePath,
		f.products.byExternal[99].ImagePath,
		"products/orphan.png",
	} {
		require.NoError(t, f.store.ImageStore.Put(key, []byte("x")))
	}

	result, err := f.sync.Sync(testContext(t))
	require.NoError(t, err)

	keys, err := f.store.List(ImageDir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		f.products.byExternal[42].ImagePath,
		"products/odoo_product_99_22222222222222222222222222222222.png",
	}, keys)
	assert.Equal(t, ImageKey(42, ContentHash(encode("new"))), f.products.byExternal[42].ImagePath)
	assert.Contains(t, result.ImagesDeleted, "products/orphan.png")
}
