package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/carlmjohnson/requests"
	"github.com/fiffu/stockwatch/config"
	"github.com/fiffu/stockwatch/lib/models"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Phrases that mark a page as definitively out of stock.
var outOfStockMarkers = []string{
	"sold out",
	"out of stock",
	"not available",
	"unavailable",
}

type microcenter struct {
	log       *zap.Logger
	transport http.RoundTripper
	timeout   time.Duration
}

// NewMicrocenter builds the Microcenter availability provider. Store selection
// rides on the storeSelected cookie; without it the site reports stock for its
// default store.
func NewMicrocenter(cfg *config.Config, log *zap.Logger, transport http.RoundTripper) Provider {
	return &microcenter{
		log:       log,
		transport: transport,
		timeout:   cfg.ProviderTimeout(),
	}
}

func (m *microcenter) Check(ctx context.Context, locator, storeID string) models.Determination {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var page string
	err := requests.URL(locator).
		Transport(m.transport).
		UserAgent(userAgent).
		Cookie("storeSelected", storeID).
		ToString(&page).
		Fetch(ctx)
	if err != nil {
		m.log.Sugar().Infow("Fetch failed", "locator", locator, "store_id", storeID, "err", err)
		return models.Inconclusive("fetch: " + err.Error())
	}

	doc, err := htmlquery.Parse(strings.NewReader(page))
	if err != nil {
		return models.Inconclusive("parse: " + err.Error())
	}

	title := extractTitle(doc)

	if inStock, ok := determineStock(doc); ok {
		if inStock {
			return models.InStock(title)
		}
		return models.OutOfStock(title)
	}
	return models.Inconclusive("no stock markers on page")
}

// determineStock applies the page heuristics in order of reliability: an
// enabled Add to Cart button, then the inventory panel text, then the
// out-of-stock phrases anywhere on the page.
func determineStock(doc *html.Node) (inStock, ok bool) {
	if btn := htmlquery.FindOne(doc, "//button[@data-name = 'Add to Cart']"); btn != nil {
		if !hasClass(btn, "disabled") {
			return true, true
		}
	}

	if inv := htmlquery.FindOne(doc, "//div[contains(@class, 'inventory')]"); inv != nil {
		text := strings.ToLower(collectText(inv))
		if strings.Contains(text, "in stock") && !strings.Contains(text, "out of stock") {
			return true, true
		}
	}

	pageText := strings.ToLower(collectText(doc))
	for _, marker := range outOfStockMarkers {
		if strings.Contains(pageText, marker) {
			return false, true
		}
	}

	return false, false
}

// extractTitle reads the og:title meta tag, dropping the site-name suffix.
func extractTitle(doc *html.Node) string {
	elem := htmlquery.FindOne(doc, "//meta[@property = 'og:title']")
	if elem == nil {
		return ""
	}
	for _, attr := range elem.Attr {
		if attr.Key == "content" {
			title := strings.Replace(attr.Val, " - Micro Center", "", 1)
			return strings.TrimSpace(title)
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
