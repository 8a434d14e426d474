package main

import (
	"net/http"
	"os"
	"time"

	"github.com/fiffu/stockwatch/app"
	"github.com/fiffu/stockwatch/config"
	"github.com/fiffu/stockwatch/lib"
	"github.com/fiffu/stockwatch/lib/checkcache"
	"github.com/fiffu/stockwatch/lib/dispatch"
	"github.com/fiffu/stockwatch/lib/monitor"
	"github.com/fiffu/stockwatch/lib/provider"
	"github.com/fiffu/stockwatch/lib/store"
	"github.com/fiffu/stockwatch/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func NewCheckCache(cfg *config.Config) *checkcache.Cache {
	return checkcache.New(cfg.CacheTTL())
}

func main() {
	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(senders.NewSenderRegistry),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewTransport),
		fx.Provide(store.New),
		fx.Provide(NewCheckCache),
		fx.Provide(provider.NewMicrocenter),
		fx.Provide(dispatch.New),
		fx.Provide(monitor.New),
		fx.Provide(lib.NewService),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*http.Server) {}),
	).Run()
}
