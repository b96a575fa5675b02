package service

import (
	"context"
	"fmt"

	"go-inventory-odoo/internal/cache"
	"go-inventory-odoo/internal/erpsync"
	"go-inventory-odoo/internal/events"
	"go-inventory-odoo/pkg/odoo"

	"github.com/rs/zerolog"
)

type ProductSyncer interface {
	Sync(ctx context.Context) (erpsync.ProductSyncResult, error)
}

type TransactionSyncer interface {
	Sync(ctx context.Context, daysBack int) (erpsync.TransactionSyncResult, error)
}

type OrphanCleaner interface {
	CleanOrphans(products erpsync.ProductStore) ([]string, error)
}

// Authenticator is the session side of the Odoo client.
type Authenticator interface {
	Session() (odoo.Session, bool)
	Authenticate(ctx context.Context) error
}

type SyncService interface {
	SyncProducts(ctx context.Context) (erpsync.ProductSyncResult, error)
	SyncTransactions(ctx context.Context, days int) (erpsync.TransactionSyncResult, error)
	CleanImages(ctx context.Context) ([]string, error)
}

type syncService struct {
	auth         Authenticator
	products     ProductSyncer
	transactions TransactionSyncer
	cleaner      OrphanCleaner
	productStore erpsync.ProductStore
	defaultDays  int
	publisher    events.Publisher
	cache        cache.Cache
	logger       zerolog.Logger
}

func NewSyncService(
	auth Authenticator,
	products ProductSyncer,
	transactions TransactionSyncer,
	cleaner OrphanCleaner,
	productStore erpsync.ProductStore,
	defaultDays int,
	publisher events.Publisher,
	aggregates cache.Cache,
	logger zerolog.Logger,
) SyncService {
	if defaultDays <= 0 {
		defaultDays = erpsync.DefaultTransactionDays
	}
	return &syncService{
		auth:         auth,
		products:     products,
		transactions: transactions,
		cleaner:      cleaner,
		productStore: productStore,
		defaultDays:  defaultDays,
		publisher:    publisher,
		cache:        aggregates,
		logger:       logger.With().Str("component", "sync_service").Logger(),
	}
}

func (s *syncService) SyncProducts(ctx context.Context) (erpsync.ProductSyncResult, error) {
	if err := s.ensureSession(ctx); err != nil {
		return erpsync.ProductSyncResult{}, err
	}
	result, err := s.products.Sync(ctx)
	if err != nil {
		return result, err
	}
	s.completed(ctx, "products", result)
	return result, nil
}

func (s *syncService) SyncTransactions(ctx context.Context, days int) (erpsync.TransactionSyncResult, error) {
	if days <= 0 {
		days = s.defaultDays
	}
	if err := s.ensureSession(ctx); err != nil {
		return erpsync.TransactionSyncResult{}, err
	}
	result, err := s.transactions.Sync(ctx, days)
	if err != nil {
		return result, err
	}
	s.completed(ctx, "transactions", result)
	return result, nil
}

func (s *syncService) CleanImages(ctx context.Context) ([]string, error) {
	deleted, err := s.cleaner.CleanOrphans(s.productStore)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("deleted", len(deleted)).Msg("Orphaned images cleaned")
	if err := s.publisher.Publish(ctx, events.New(events.ImagesCleaned, "", map[string]interface{}{"deleted": deleted})); err != nil {
		s.logger.Warn().Err(err).Msg("Event not delivered")
	}
	return deleted, nil
}

// ensureSession re-authenticates once when the client holds no session, so a
// failed login at startup does not need a restart.
func (s *syncService) ensureSession(ctx context.Context) error {
	if _, ok := s.auth.Session(); ok {
		return nil
	}
	s.logger.Info().Msg("No Odoo session, re-authenticating")
	if err := s.auth.Authenticate(ctx); err != nil {
		return fmt.Errorf("%w: %w", erpsync.ErrFetchFailed, err)
	}
	return nil
}

func (s *syncService) completed(ctx context.Context, target string, result interface{}) {
	if err := s.publisher.Publish(ctx, events.New(events.SyncCompleted, target, result)); err != nil {
		s.logger.Warn().Err(err).Msg("Event not delivered")
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Cache invalidation failed")
	}
}
