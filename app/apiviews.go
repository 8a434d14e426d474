package app

import (
	"database/sql"
	"time"

	"github.com/fiffu/stockwatch/lib"
	"github.com/fiffu/stockwatch/lib/models"
	"github.com/fiffu/stockwatch/lib/store"
)

type RegisterView struct {
	ProductID uint   `json:"product_id"`
	Title     string `json:"title,omitempty"`
	Stock     string `json:"stock"`
}

func (view RegisterView) From(result *lib.RegisterResult) RegisterView {
	return RegisterView{
		ProductID: result.ProductID,
		Title:     result.Title,
		Stock:     stockLabel(result.Stock),
	}
}

type TrackedProductView struct {
	Index       int     `json:"index"`
	ProductID   uint    `json:"product_id"`
	Title       string  `json:"title,omitempty"`
	StoreID     string  `json:"store_id"`
	Locator     string  `json:"locator"`
	InStock     bool    `json:"in_stock"`
	Notified    bool    `json:"notified"`
	LastChecked *string `json:"last_checked"`
}

func trackedProductViews(tracked []store.TrackedProduct) []TrackedProductView {
	out := make([]TrackedProductView, len(tracked))
	for i, t := range tracked {
		out[i] = TrackedProductView{
			Index:       i + 1,
			ProductID:   t.ID,
			Title:       t.Title,
			StoreID:     t.StoreID,
			Locator:     t.Locator,
			InStock:     t.InStock,
			Notified:    t.Notified,
			LastChecked: isoformat(t.LastChecked),
		}
	}
	return out
}

type StockEventView struct {
	InStock   bool   `json:"in_stock"`
	CheckedAt string `json:"checked_at"`
}

func stockEventViews(events models.StockEvents) []StockEventView {
	out := make([]StockEventView, len(events))
	for i, e := range events {
		out[i] = StockEventView{
			InStock:   e.InStock,
			CheckedAt: e.CheckedAt.UTC().Format(time.RFC3339),
		}
	}
	return out
}

func stockLabel(s models.Stock) string {
	switch s {
	case models.StockIn:
		return "in_stock"
	case models.StockOut:
		return "out_of_stock"
	default:
		return "unknown"
	}
}

func isoformat(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.UTC().Format(time.RFC3339)
	return &s
}
