// Package dispatch fans a restock out to the product's subscribers. A failed
// delivery is logged and skipped; it never blocks the other subscribers and
// never touches the persisted stock state.
package dispatch

import (
	"context"
	"fmt"

	"github.com/fiffu/stockwatch/config"
	"github.com/fiffu/stockwatch/lib/models"
	"github.com/fiffu/stockwatch/lib/store"
	"github.com/fiffu/stockwatch/senders"
	"go.uber.org/zap"
)

type Dispatcher struct {
	log      *zap.Logger
	store    *store.Store
	senders  senders.Registry
	platform string
}

func New(log *zap.Logger, cfg *config.Config, db *store.Store, registry senders.Registry) *Dispatcher {
	return &Dispatcher{
		log:      log,
		store:    db,
		senders:  registry,
		platform: cfg.NotifyPlatform,
	}
}

// NotifyRestock messages every subscriber of the product whose notified latch
// is still open, closing each latch only after that subscriber's delivery is
// confirmed. The latch is per subscription, so someone who unsubscribed and
// re-subscribed mid-restock is told again exactly once.
func (d *Dispatcher) NotifyRestock(ctx context.Context, product *models.Product) error {
	sender, ok := d.senders[d.platform]
	if !ok {
		return fmt.Errorf("unsupported notifier platform: %s", d.platform)
	}

	subs, err := d.store.ListSubscribersOf(ctx, product.ID)
	if err != nil {
		return err
	}

	alert := senders.RestockAlert{
		Title:   product.Title,
		StoreID: product.StoreID,
		Locator: product.Locator,
	}

	for _, sub := range subs {
		if sub.Notified {
			continue
		}

		id, err := sender.SendRestockAlert(ctx, sub.UserID, alert)
		if err != nil {
			d.log.Sugar().Warnw("Failed to notify subscriber",
				"user_id", sub.UserID, "product_id", product.ID, "err", err)
			continue
		}

		if err := d.store.SetNotified(ctx, sub.UserID, product.ID, true); err != nil {
			d.log.Sugar().Errorw("Failed to mark subscriber notified",
				"user_id", sub.UserID, "product_id", product.ID, "err", err)
			continue
		}
		d.log.Sugar().Infow("Notified subscriber",
			"user_id", sub.UserID, "product_id", product.ID, "message_id", id)
	}
	return nil
}
