package erpsync

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strconv"

	"go-inventory-odoo/internal/storage"

	"github.com/rs/zerolog"
)

// ImageDir is the store directory holding product images.
const ImageDir = "products"

var imageNamePattern = regexp.MustCompile(`^odoo_product_([0-9]+)_([0-9a-f]{32})\.png$`)

// ImageKey is the store key of a product image with the given content hash.
func ImageKey(externalID int64, hash string) string {
	return path.Join(ImageDir, fmt.Sprintf("odoo_product_%d_%s.png", externalID, hash))
}

// ParseImageKey splits a key produced by ImageKey back into its fields.
// Keys not produced by ImageKey (manual uploads) do not parse.
func ParseImageKey(key string) (externalID int64, hash string, ok bool) {
	if path.Dir(key) != ImageDir {
		return 0, "", false
	}
	m := imageNamePattern.FindStringSubmatch(path.Base(key))
	if m == nil {
		return 0, "", false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return id, m[2], true
}

// ContentHash is the md5 of the base64 payload as received from Odoo.
func ContentHash(payload string) string {
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ImageReconciler keeps stored images consistent with the ERP's image_1920
// payloads, addressed by content hash.
type ImageReconciler struct {
	store  storage.ImageStore
	logger zerolog.Logger
}

func NewImageReconciler(store storage.ImageStore, logger zerolog.Logger) *ImageReconciler {
	return &ImageReconciler{store: store, logger: logger.With().Str("component", "images").Logger()}
}

// Process stores payload for the product and returns its key. An empty payload
// yields "". A payload already stored under its hash is not rewritten. A
// payload that does not decode is logged and fallback is returned unchanged.
// The error is reserved for storage failures, in which case fallback is
// returned alongside it.
func (r *ImageReconciler) Process(externalID int64, payload, fallback string) (string, error) {
	if payload == "" {
		return "", nil
	}

	key := ImageKey(externalID, ContentHash(payload))
	exists, err := r.store.Exists(key)
	if err != nil {
		return fallback, fmt.Errorf("check image %s: %w", key, err)
	}
	if exists {
		return key, nil
	}

	// Decode before deleting so a bad payload leaves the current image in place.
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		r.logger.Error().Err(err).Int64("odoo_product_id", externalID).Msg("Invalid image data")
		return fallback, nil
	}

	if err := r.deleteProductImages(externalID); err != nil {
		r.logger.Warn().Err(err).Int64("odoo_product_id", externalID).Msg("Could not remove previous images")
	}

	if err := r.store.Put(key, data); err != nil {
		return fallback, fmt.Errorf("write image %s: %w", key, err)
	}
	return key, nil
}

// deleteProductImages removes every stored image whose parsed product id
// equals externalID. Ids that merely share a prefix are left alone.
func (r *ImageReconciler) deleteProductImages(externalID int64) error {
	keys, err := r.store.List(ImageDir)
	if err != nil {
		return err
	}
	for _, key := range keys {
		id, _, ok := ParseImageKey(key)
		if !ok || id != externalID {
			continue
		}
		if err := r.store.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// DeleteUnused deletes every stored image whose key is not in keep and returns
// the deleted keys.
func (r *ImageReconciler) DeleteUnused(keep map[string]struct{}) ([]string, error) {
	keys, err := r.store.List(ImageDir)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	var deleted []string
	for _, key := range keys {
		if _, ok := keep[key]; ok {
			continue
		}
		if err := r.store.Delete(key); err != nil {
			r.logger.Error().Err(err).Str("image", key).Msg("Failed to delete orphaned image")
			continue
		}
		r.logger.Info().Str("image", key).Msg("Deleted orphaned image")
		deleted = append(deleted, key)
	}
	return deleted, nil
}

// CleanOrphans deletes every stored image no product references.
func (r *ImageReconciler) CleanOrphans(products ProductStore) ([]string, error) {
	used, err := products.ImagePaths()
	if err != nil {
		return nil, fmt.Errorf("load referenced images: %w", err)
	}
	return r.DeleteUnused(toSet(used))
}

func toSet(paths ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range paths {
		for _, p := range list {
			if p != "" {
				set[p] = struct{}{}
			}
		}
	}
	return set
}
