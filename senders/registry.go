package senders

import (
	"context"
	"net/http"

	"github.com/fiffu/stockwatch/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RestockAlert is the payload every channel renders in its own format.
type RestockAlert struct {
	Title   string
	StoreID string
	Locator string
}

// DisplayTitle falls back to a placeholder for products whose page never
// yielded a title.
func (a RestockAlert) DisplayTitle() string {
	if a.Title == "" {
		return "Unknown Product"
	}
	return a.Title
}

type Sender interface {
	SendRestockAlert(ctx context.Context, recipient string, alert RestockAlert) (string, error)
}

type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}
	return map[string]Sender{
		"email":   &mailgunSender{base},
		"discord": &discordSender{base},
	}
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
