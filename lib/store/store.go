package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fiffu/stockwatch/lib/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StorageError wraps a failed storage operation. The failed operation rolls
// back as a unit; callers never observe partial writes.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Store owns the persisted entities (users, products, subscriptions, stock
// events) and their relational integrity. All users tracking the same
// (locator, store) pair share one product row.
type Store struct {
	log *zap.Logger
	db  *gorm.DB
}

func New(log *zap.Logger, db *gorm.DB) *Store {
	return &Store{log, db}
}

// TrackedProduct is a product joined with one user's subscription state.
type TrackedProduct struct {
	models.Product `gorm:"embedded"`
	Notified       bool
	AddedAt        time.Time
}

// RegisterSubscription ensures the user, the product and the link between them
// all exist, and returns the shared product id. Re-registering is a no-op
// beyond ensuring the link.
func (s *Store) RegisterSubscription(ctx context.Context, userID, locator, storeID string) (uint, error) {
	var productID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := models.User{ID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
			return err
		}

		product := models.Product{Locator: locator, StoreID: storeID}
		if err := tx.Where("locator = ? AND store_id = ?", locator, storeID).
			FirstOrCreate(&product).Error; err != nil {
			return err
		}
		productID = product.ID

		sub := models.Subscription{
			UserID:    userID,
			ProductID: product.ID,
			AddedAt:   time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&sub).Error
	})
	if err != nil {
		return 0, wrap("register subscription", err)
	}

	s.log.Sugar().Infow("Registered subscription", "user_id", userID, "product_id", productID)
	return productID, nil
}

// RecordCheckResult updates the product's stock state, appends a stock event
// and reports the before/after stock values in one transaction. The returned
// pair is the caller's only signal for detecting a transition.
func (s *Store) RecordCheckResult(ctx context.Context, productID uint, inStock bool, title string) (previous, current bool, err error) {
	now := time.Now().UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			return err
		}
		previous = product.InStock

		updates := map[string]any{
			"in_stock":     inStock,
			"last_checked": now,
		}
		if title != "" {
			updates["title"] = title
		}
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return err
		}

		event := models.StockEvent{ProductID: productID, InStock: inStock, CheckedAt: now}
		return tx.Create(&event).Error
	})
	if err != nil {
		return false, false, wrap("record check result", err)
	}
	return previous, inStock, nil
}

// ListSubscriptionsForUser returns the user's tracked products, most recently
// added first.
func (s *Store) ListSubscriptionsForUser(ctx context.Context, userID string) ([]TrackedProduct, error) {
	var tracked []TrackedProduct
	tx := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Select("products.*, subscriptions.notified, subscriptions.added_at").
		Joins("JOIN products ON products.id = subscriptions.product_id").
		Where("subscriptions.user_id = ?", userID).
		Order("subscriptions.added_at DESC, subscriptions.product_id DESC").
		Scan(&tracked)
	if err := tx.Error; err != nil {
		return nil, wrap("list subscriptions", err)
	}
	return tracked, nil
}

// ListAllDistinctProducts returns every product once, never-checked products
// first so cold products get priority within a cycle. sqlite sorts NULL before
// any timestamp in ascending order.
func (s *Store) ListAllDistinctProducts(ctx context.Context) (models.Products, error) {
	var products models.Products
	tx := s.db.WithContext(ctx).Order("last_checked ASC").Find(&products)
	if err := tx.Error; err != nil {
		return nil, wrap("list products", err)
	}
	return products, nil
}

// ListSubscribersOf returns every subscription on the product, carrying the
// per-subscription notified latch the dispatcher gates on.
func (s *Store) ListSubscribersOf(ctx context.Context, productID uint) (models.Subscriptions, error) {
	var subs models.Subscriptions
	tx := s.db.WithContext(ctx).Where("product_id = ?", productID).Find(&subs)
	if err := tx.Error; err != nil {
		return nil, wrap("list subscribers", err)
	}
	return subs, nil
}

func (s *Store) SetNotified(ctx context.Context, userID string, productID uint, notified bool) error {
	tx := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("notified", notified)
	return wrap("set notified", tx.Error)
}

// ResetNotifiedForAllSubscribers re-arms every subscriber of the product so a
// future restock notifies them again.
func (s *Store) ResetNotifiedForAllSubscribers(ctx context.Context, productID uint) error {
	tx := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("product_id = ?", productID).
		Update("notified", false)
	return wrap("reset notified", tx.Error)
}

// Unsubscribe removes the user's Nth subscription, counted in the same
// most-recent-first order ListSubscriptionsForUser reports. When the last
// subscriber leaves, the product and its history go with it. An out-of-range
// index reports false without touching anything.
func (s *Store) Unsubscribe(ctx context.Context, userID string, index int) (bool, error) {
	tracked, err := s.ListSubscriptionsForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if index < 0 || index >= len(tracked) {
		return false, nil
	}
	productID := tracked[index].ID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND product_id = ?", userID, productID).
			Delete(&models.Subscription{}).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.Subscription{}).
			Where("product_id = ?", productID).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		if err := tx.Where("product_id = ?", productID).Delete(&models.StockEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, productID).Error
	})
	if err != nil {
		return false, wrap("unsubscribe", err)
	}

	s.log.Sugar().Infow("Removed subscription", "user_id", userID, "product_id", productID)
	return true, nil
}

// StockHistory returns the product's stock events, most recent first, bounded
// by limit.
func (s *Store) StockHistory(ctx context.Context, productID uint, limit int) (models.StockEvents, error) {
	var events models.StockEvents
	tx := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("checked_at DESC, id DESC").
		Limit(limit).
		Find(&events)
	if err := tx.Error; err != nil {
		return nil, wrap("stock history", err)
	}
	return events, nil
}

// GetProduct looks up one product by id; reports found=false when absent.
func (s *Store) GetProduct(ctx context.Context, productID uint) (*models.Product, bool, error) {
	var product models.Product
	tx := s.db.WithContext(ctx).First(&product, productID)
	if err := tx.Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, wrap("get product", err)
	}
	return &product, true, nil
}
