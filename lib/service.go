package lib

import (
	"context"
	"errors"

	"github.com/fiffu/stockwatch/lib/models"
	"github.com/fiffu/stockwatch/lib/monitor"
	"github.com/fiffu/stockwatch/lib/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrInvalidLocator = errors.New("locator must be a Microcenter product URL or /product/<id>/<slug> path")
	ErrInvalidStore   = errors.New("store id must be a 3-digit store number")
	ErrNotTracked     = errors.New("product is not tracked by this user")
)

type Service struct {
	log    *zap.Logger
	store  *store.Store
	engine *monitor.Engine
}

func NewService(lc fx.Lifecycle, log *zap.Logger, db *store.Store, engine *monitor.Engine) *Service {
	return &Service{log, db, engine}
}

type RegisterResult struct {
	ProductID uint
	Title     string
	Stock     models.Stock
}

// Register validates the locator, runs an immediate one-off availability
// check and subscribes the user. A conclusive determination seeds the
// product's title and stock right away; an inconclusive one still registers,
// leaving the product for the next cycle.
func (svc *Service) Register(ctx context.Context, userID, rawLocator, storeID string) (*RegisterResult, error) {
	locator, ok := NormalizeLocator(rawLocator)
	if !ok {
		return nil, ErrInvalidLocator
	}
	if !ValidStoreID(storeID) {
		return nil, ErrInvalidStore
	}

	det := svc.engine.Determine(ctx, locator, storeID)

	productID, err := svc.store.RegisterSubscription(ctx, userID, locator, storeID)
	if err != nil {
		return nil, err
	}

	if det.Conclusive() {
		if _, _, err := svc.store.RecordCheckResult(ctx, productID, det.IsInStock(), det.Title); err != nil {
			return nil, err
		}
	} else {
		svc.log.Sugar().Infow("Registered product without initial determination",
			"product_id", productID, "reason", det.Reason)
	}

	return &RegisterResult{ProductID: productID, Title: det.Title, Stock: det.Stock}, nil
}

func (svc *Service) List(ctx context.Context, userID string) ([]store.TrackedProduct, error) {
	return svc.store.ListSubscriptionsForUser(ctx, userID)
}

// Remove unsubscribes the user's Nth product, by the same ordering List uses.
func (svc *Service) Remove(ctx context.Context, userID string, index int) (bool, error) {
	return svc.store.Unsubscribe(ctx, userID, index)
}

// CheckNow checks all of one user's products immediately, through the same
// engine primitives the scheduled cycle uses.
func (svc *Service) CheckNow(ctx context.Context, userID string) ([]store.TrackedProduct, error) {
	return svc.engine.CheckUserProducts(ctx, userID)
}

// History returns the product's stock events, newest first. The user must
// track the product.
func (svc *Service) History(ctx context.Context, userID string, productID uint, limit int) (models.StockEvents, error) {
	tracked, err := svc.store.ListSubscriptionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	for _, t := range tracked {
		if t.ID == productID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNotTracked
	}

	return svc.store.StockHistory(ctx, productID, limit)
}
