package erpsync

import (
	"encoding/base64"
	"testing"

	"go-inventory-odoo/internal/storage"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler() (*ImageReconciler, *countingStore) {
	store := &countingStore{ImageStore: storage.NewFileStoreFs(afero.NewMemMapFs())}
	return NewImageReconciler(store, zerolog.Nop()), store
}

func encode(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestImageKey_RoundTrip(t *testing.T) {
	key := ImageKey(42, ContentHash("abc"))
	assert.Equal(t, "products/odoo_product_42_900150983cd24fb0d6963f7d28e17f72.png", key)

	id, hash, ok := ParseImageKey(key)
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", hash)

	for _, bad := range []string{
		"products/manual_upload.png",
		"other/odoo_product_42_900150983cd24fb0d6963f7d28e17f72.png",
		"products/odoo_product_x_900150983cd24fb0d6963f7d28e17f72.png",
		"products/odoo_product_42_short.png",
	} {
		_, _, ok := ParseImageKey(bad)
		assert.False(t, ok, bad)
	}
}

func TestProcess_EmptyPayload(t *testing.T) {
	r, store := newTestReconciler()

	key, err := r.Process(42, "", "products/old.png")

	require.NoError(t, err)
	assert.Equal(t, "", key)
	assert.Zero(t, store.puts)
}

func TestProcess_Idempotent(t *testing.T) {
	r, store := newTestReconciler()
	payload := encode("png-bytes")

	first, err := r.Process(42, payload, "")
	require.NoError(t, err)
	second, err := r.Process(42, payload, first)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.puts, "same payload must be written once")
	data, err := store.Get(first)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestProcess_ReplacesOnlyOwnImages(t *testing.T) {
	r, store := newTestReconciler()

	old42, err := r.Process(42, encode("old"), "")
	require.NoError(t, err)
	img4, err := r.Process(4, encode("four"), "")
	require.NoError(t, err)
	img420, err := r.Process(420, encode("four-twenty"), "")
	require.NoError(t, err)

	new42, err := r.Process(42, encode("new"), old42)
	require.NoError(t, err)
	assert.NotEqual(t, old42, new42)

	exists, _ := store.Exists(old42)
	assert.False(t, exists, "previous image of 42 is replaced")
	for _, key := range []string{img4, img420, new42} {
		exists, _ := store.Exists(key)
		assert.True(t, exists, key)
	}
}

func TestProcess_InvalidPayloadKeepsFallback(t *testing.T) {
	r, store := newTestReconciler()
	current, err := r.Process(42, encode("current"), "")
	require.NoError(t, err)

	key, err := r.Process(42, "!!!not-base64", current)

	require.NoError(t, err)
	assert.Equal(t, current, key)
	exists, _ := store.Exists(current)
	assert.True(t, exists, "a bad payload must not remove the current image")
}

func TestProcess_WriteFailureReturnsFallback(t *testing.T) {
	r, store := newTestReconciler()
	store.failPut = errBoom

	key, err := r.Process(42, encode("data"), "products/previous.png")

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "products/previous.png", key)
}

func TestDeleteUnused(t *testing.T) {
	r, store := newTestReconciler()
	for _, k := range []string{"products/a.png", "products/b.png", "products/c.png"} {
		require.NoError(t, store.ImageStore.Put(k, []byte("x")))
	}

	deleted, err := r.DeleteUnused(toSet([]string{"products/b.png", ""}))

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"products/a.png", "products/c.png"}, deleted)
	keys, err := store.List(ImageDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"products/b.png"}, keys)
}

func TestCleanOrphans(t *testing.T) {
	r, store := newTestReconciler()
	products := newMemProducts()
	id := int64(7)
	products.byExternal[7] = newProductWithImage(id, "products/keep.png")
	require.NoError(t, store.ImageStore.Put("products/keep.png", []byte("x")))
	require.NoError(t, store.ImageStore.Put("products/stale.png", []byte("x")))

	deleted, err := r.CleanOrphans(products)

	require.NoError(t, err)
	assert.Equal(t, []string{"products/stale.png"}, deleted)
}
