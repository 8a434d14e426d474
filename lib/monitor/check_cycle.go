package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fiffu/stockwatch/lib/models"
	"github.com/fiffu/stockwatch/lib/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunCycle performs one full check cycle. Cycles never overlap; a product's
// failure is logged and counted but never aborts the rest of the cycle.
func (e *Engine) RunCycle(ctx context.Context, startedAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := e.log.With(zap.String("cycle_id", uuid.NewString()))

	if evicted := e.cache.EvictExpired(startedAt); evicted > 0 {
		log.Sugar().Infof("Evicted %d expired cache entries", evicted)
	}

	products, err := e.store.ListAllDistinctProducts(ctx)
	if err != nil {
		log.Sugar().Errorw("Failed to list products for cycle", "err", err)
		return
	}

	metrics := &cycleMetrics{totalSelected: len(products)}
	for start := 0; start < len(products); start += e.concurrency {
		end := min(start+e.concurrency, len(products))
		e.checkBatch(ctx, log, products[start:end], metrics)
	}

	if metrics.totalSelected == 0 {
		log.Sugar().Info("No products to check")
	} else {
		log.Sugar().Infow(
			fmt.Sprintf("Processed %d products", metrics.totalSelected),
			metrics.logArgs()...,
		)
	}

	elapsed := time.Now().UTC().Sub(startedAt)
	log.Sugar().Infow("Check cycle completed", "elapsed_msecs", int(elapsed.Milliseconds()))
}

func (e *Engine) checkBatch(ctx context.Context, log *zap.Logger, batch models.Products, metrics *cycleMetrics) {
	var wg sync.WaitGroup

	for _, product := range batch {
		product := product
		wg.Add(1)

		go func() {
			defer wg.Done()
			m := e.checkProduct(ctx, log, product)
			metrics.Add(m)
		}()
	}

	wg.Wait()
}

// checkProduct resolves one product's determination and applies the
// transition rules. Inconclusive checks leave the persisted state untouched:
// no stock update, no history row, no notification.
func (e *Engine) checkProduct(ctx context.Context, log *zap.Logger, product *models.Product) *cycleMetrics {
	det := e.Determine(ctx, product.Locator, product.StoreID)
	if !det.Conclusive() {
		log.Sugar().Infow("Skipping product, check was inconclusive",
			"product_id", product.ID, "reason", det.Reason)
		return &cycleMetrics{skipped: 1}
	}

	previous, current, err := e.store.RecordCheckResult(ctx, product.ID, det.IsInStock(), det.Title)
	if err != nil {
		log.Sugar().Errorw("Failed to record check result", "product_id", product.ID, "err", err)
		return &cycleMetrics{errored: 1}
	}

	if det.Title != "" {
		product.Title = det.Title
	}
	product.InStock = current

	switch {
	case current && !previous:
		log.Sugar().Infow("Product restocked", "product_id", product.ID, "title", product.Title)
		if err := e.dispatcher.NotifyRestock(ctx, product); err != nil {
			log.Sugar().Errorw("Failed to dispatch restock", "product_id", product.ID, "err", err)
			return &cycleMetrics{errored: 1}
		}
		return &cycleMetrics{restocked: 1}

	case !current && previous:
		log.Sugar().Infow("Product sold out", "product_id", product.ID, "title", product.Title)
		if err := e.store.ResetNotifiedForAllSubscribers(ctx, product.ID); err != nil {
			log.Sugar().Errorw("Failed to reset notified flags", "product_id", product.ID, "err", err)
			return &cycleMetrics{errored: 1}
		}
		return &cycleMetrics{soldOut: 1}

	default:
		return &cycleMetrics{unchanged: 1}
	}
}

// CheckUserProducts runs the same per-product check path as the scheduled
// cycle, scoped to one user's products, and returns their refreshed list.
func (e *Engine) CheckUserProducts(ctx context.Context, userID string) ([]store.TrackedProduct, error) {
	tracked, err := e.store.ListSubscriptionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	log := e.log.With(zap.String("user_id", userID))
	for i := range tracked {
		e.checkProduct(ctx, log, &tracked[i].Product)
	}

	return e.store.ListSubscriptionsForUser(ctx, userID)
}
