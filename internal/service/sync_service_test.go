package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-inventory-odoo/internal/erpsync"
	"go-inventory-odoo/internal/events"
	"go-inventory-odoo/pkg/odoo"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockAuth struct {
	HasSession bool
	AuthErr    error
	AuthCalls  int
}

func (m *MockAuth) Session() (odoo.Session, bool) {
	if !m.HasSession {
		return odoo.Session{}, false
	}
	return odoo.Session{UID: 2, AuthenticatedAt: time.Now()}, true
}

func (m *MockAuth) Authenticate(context.Context) error {
	m.AuthCalls++
	if m.AuthErr == nil {
		m.HasSession = true
	}
	return m.AuthErr
}

type MockProductSyncer struct {
	Result erpsync.ProductSyncResult
	Err    error
	Calls  int
}

func (m *MockProductSyncer) Sync(context.Context) (erpsync.ProductSyncResult, error) {
	m.Calls++
	return m.Result, m.Err
}

type MockTransactionSyncer struct {
	Days []int
}

func (m *MockTransactionSyncer) Sync(_ context.Context, days int) (erpsync.TransactionSyncResult, error) {
	m.Days = append(m.Days, days)
	return erpsync.TransactionSyncResult{Fetched: 1, Upserted: 1}, nil
}

type MockCleaner struct {
	Deleted []string
}

func (m *MockCleaner) CleanOrphans(erpsync.ProductStore) ([]string, error) {
	return m.Deleted, nil
}

func newSyncFixture(auth *MockAuth, products *MockProductSyncer) (SyncService, *MockTransactionSyncer, *MockPublisher, *MockCache) {
	txs := &MockTransactionSyncer{}
	publisher := &MockPublisher{}
	aggregates := newMockCache()
	svc := NewSyncService(auth, products, txs, &MockCleaner{Deleted: []string{"products/orphan.png"}},
		newMockProductRepo(), 14, publisher, aggregates, zerolog.Nop())
	return svc, txs, publisher, aggregates
}

func TestSyncProducts(t *testing.T) {
	products := &MockProductSyncer{Result: erpsync.ProductSyncResult{Fetched: 1, Upserted: 1}}
	svc, _, publisher, aggregates := newSyncFixture(&MockAuth{HasSession: true}, products)

	result, err := svc.SyncProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Upserted)
	require.Len(t, publisher.Events, 1)
	assert.Equal(t, events.SyncCompleted, publisher.Events[0].Type)
	assert.Equal(t, "products", publisher.Events[0].Key)
	assert.Equal(t, 1, aggregates.Invalidations)
}

func TestSyncProducts_ReauthenticatesWithoutSession(t *testing.T) {
	auth := &MockAuth{}
	products := &MockProductSyncer{}
	svc, _, _, _ := newSyncFixture(auth, products)

	_, err := svc.SyncProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, auth.AuthCalls)
	assert.Equal(t, 1, products.Calls)
}

func TestSyncProducts_LoginStillFailing(t *testing.T) {
	auth := &MockAuth{AuthErr: odoo.ErrAuthentication}
	products := &MockProductSyncer{}
	svc, _, publisher, _ := newSyncFixture(auth, products)

	_, err := svc.SyncProducts(context.Background())

	assert.ErrorIs(t, err, erpsync.ErrFetchFailed)
	assert.ErrorIs(t, err, odoo.ErrAuthentication)
	assert.Zero(t, products.Calls)
	assert.Empty(t, publisher.Events)
}

func TestSyncProducts_FetchFailureNotPublished(t *testing.T) {
	products := &MockProductSyncer{Err: errors.Join(erpsync.ErrFetchFailed, errors.New("timeout"))}
	svc, _, publisher, aggregates := newSyncFixture(&MockAuth{HasSession: true}, products)

	_, err := svc.SyncProducts(context.Background())

	assert.ErrorIs(t, err, erpsync.ErrFetchFailed)
	assert.Empty(t, publisher.Events)
	assert.Zero(t, aggregates.Invalidations)
}

func TestSyncTransactions_DefaultWindow(t *testing.T) {
	svc, txs, _, _ := newSyncFixture(&MockAuth{HasSession: true}, &MockProductSyncer{})

	_, err := svc.SyncTransactions(context.Background(), 0)
	require.NoError(t, err)
	_, err = svc.SyncTransactions(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, []int{14, 3}, txs.Days)
}

func TestCleanImages(t *testing.T) {
	svc, _, publisher, _ := newSyncFixture(&MockAuth{}, &MockProductSyncer{})

	deleted, err := svc.CleanImages(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"products/orphan.png"}, deleted)
	assert.Equal(t, events.ImagesCleaned, publisher.Events[0].Type)
}
