package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fiffu/stockwatch/lib/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	locator1 = "https://www.microcenter.com/product/1111/widget"
	locator2 = "https://www.microcenter.com/product/2222/gizmo"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.sqlite")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Subscription{},
		&models.StockEvent{},
	))
	return New(zap.NewNop(), db)
}

func TestRegisterSubscriptionDedup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p1, err := s.RegisterSubscription(ctx, "userA", locator1, "131")
	require.NoError(t, err)

	p2, err := s.RegisterSubscription(ctx, "userB", locator1, "131")
	require.NoError(t, err)
	assert.Equal(t, p1, p2, "same (locator, store) must share one product row")

	p3, err := s.RegisterSubscription(ctx, "userA", locator1, "065")
	require.NoError(t, err)
	assert.NotEqual(t, p1, p3, "a different store is a different product")

	subs, err := s.ListSubscribersOf(ctx, p1)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestRegisterSubscriptionIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p1, err := s.RegisterSubscription(ctx, "userA", locator1, "131")
	require.NoError(t, err)

	p2, err := s.RegisterSubscription(ctx, "userA", locator1, "131")
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	subs, err := s.ListSubscribersOf(ctx, p1)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestRecordCheckResultReportsTransition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	productID, err := s.RegisterSubscription(ctx, "userA", locator1, "131")
	require.NoError(t, err)

	prev, curr, err := s.RecordCheckResult(ctx, productID, false, "Widget")
	require.NoError(t, err)
	assert.False(t, prev)
	assert.False(t, curr)

	prev, curr, err = s.RecordCheckResult(ctx, productID, true, "")
	require.NoError(t, err)
	assert.False(t, prev)
	assert.True(t, curr)

	prev, curr, err = s.RecordCheckResult(ctx, productID, false, "")
	require.NoError(t, err)
	assert.True(t, prev)
	assert.False(t, curr)

	product, found, err := s.GetProduct(ctx, productID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Widget", product.Title, "empty title must not clobber the stored one")
	assert.True(t, product.LastChecked.Valid)

	history, err := s.StockHistory(ctx, productID, 50)
	require.NoError(t, err)
	require.Len(t, history, 3)
	// Most recent first.
	assert.False(t, history[0].InStock)
	assert.True(t, history[1].InStock)
	assert.False(t, history[2].InStock)
}

func TestStockHistoryRespectsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	productID, err := s.RegisterSubscription(ctx, "userA", locator1, "131")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _, err := s.RecordCheckResult(ctx, productID, i%2 == 0, "")
		require.NoError(t, err)
	}

	history, err := s.StockHistory(ctx, productID, 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestListSubscriptionsForUserOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p1, err := s.RegisterSubscription(ctx, "userA", locator1, "131")
	require.NoError(t, err)
	p2, err := s.RegisterSubscription(ctx, "userA", locator2, "131")
	require.NoError(t, err)

	tracked, err := s.ListSubscriptionsForUser(ctx, "userA")
	require.NoError(t, err)
	require.Len(t, tracked, 2)
	assert.Equal(t, p2, tracked[0].ID, "most recently added first")
	assert.Equal(t, p1, tracked[1].ID)
}

func TestListAllDistinctProductsColdFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	checked, err := s.RegisterSubscription(ctx, "userA", locator1, "131")
	require.NoError(t, err)
	_, _, err = s.RecordCheckResult(ctx, checked, true, "Widget")
	require.NoError(t, err)

	cold, err := s.RegisterSubscription(ctx, "userA", locator2, "131")
	require.NoError(t, err)

	products, err := s.ListAllDistinctProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, cold, products[0].ID, "never-checked products come first")
	assert.Equal(t, checked, products[1].ID)
}

func TestNotifiedFlagUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	productID, err := s.RegisterSubscription(ctx, "userA", locator1, "131")
	require.NoError(t, err)
	_, err = s.RegisterSubscription(ctx, "userB", locator1, "131")
	require.NoError(t, err)

	require.NoError(t, s.SetNotified(ctx, "userA", productID, true))
	require.NoError(t, s.SetNotified(ctx, "userB", productID, true))

	subs, err := s.ListSubscribersOf(ctx, productID)
	require.NoError(t, err)
	for _, sub := range subs {
		assert.True(t, sub.Notified)
	}

	require.NoError(t, s.ResetNotifiedForAllSubscribers(ctx, productID))

	subs, err = s.ListSubscribersOf(ctx, productID)
	require.NoError(t, err)
	for _, sub := range subs {
		assert.False(t, sub.Notified)
	}
}

func TestUnsubscribeLastSubscriberDeletesProduct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	productID, err := s.RegisterSubscription(ctx, "userA", locator1, "131")
	require.NoError(t, err)
	_, _, err = s.RecordCheckResult(ctx, productID, true, "Widget")
	require.NoError(t, err)

	removed, err := s.Unsubscribe(ctx, "userA", 0)
	require.NoError(t, err)
	assert.True(t, removed)

	_, found, err := s.GetProduct(ctx, productID)
	require.NoError(t, err)
	assert.False(t, found, "orphaned product must be deleted")

	history, err := s.StockHistory(ctx, productID, 50)
	require.NoError(t, err)
	assert.Empty(t, history, "history cascades away with the product")
}

func TestUnsubscribeKeepsSharedProduct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	productID, err := s.RegisterSubscription(ctx, "userA", locator1, "131")
	require.NoError(t, err)
	_, err = s.RegisterSubscription(ctx, "userB", locator1, "131")
	require.NoError(t, err)

	removed, err := s.Unsubscribe(ctx, "userA", 0)
	require.NoError(t, err)
	assert.True(t, removed)

	_, found, err := s.GetProduct(ctx, productID)
	require.NoError(t, err)
	assert.True(t, found, "product with remaining subscribers stays")

	subs, err := s.ListSubscribersOf(ctx, productID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "userB", subs[0].UserID)
}

func TestUnsubscribeOutOfRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	productID, err := s.RegisterSubscription(ctx, "userA", locator1, "131")
	require.NoError(t, err)

	for _, index := range []int{-1, 1, 99} {
		removed, err := s.Unsubscribe(ctx, "userA", index)
		require.NoError(t, err)
		assert.False(t, removed)
	}

	subs, err := s.ListSubscribersOf(ctx, productID)
	require.NoError(t, err)
	assert.Len(t, subs, 1, "out-of-range unsubscribe mutates nothing")
}

func TestStorageErrorWrapsCause(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.RecordCheckResult(ctx, 9999, true, "")
	require.Error(t, err)

	var storageErr *StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
