package provider

import (
	"context"

	"github.com/fiffu/stockwatch/lib/models"
)

// Provider checks one product page at one store and reports a determination.
// Fetch failures, non-2xx responses and ambiguous pages all come back as
// inconclusive determinations rather than errors; the reason only feeds logs.
type Provider interface {
	Check(ctx context.Context, locator, storeID string) models.Determination
}
