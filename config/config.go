package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Env            string `env:"ENVIRONMENT"`
	DatabasePath   string `env:"DATABASE_PATH" envDefault:"stockwatch.sqlite"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`
	BasicAuthCreds string `env:"BASIC_AUTH_CREDS"`

	CheckIntervalSecs   int    `env:"CHECK_INTERVAL" envDefault:"300"`
	CacheTTLSecs        int    `env:"CACHE_TTL" envDefault:"10"`
	ProviderTimeoutSecs int    `env:"PROVIDER_TIMEOUT" envDefault:"30"`
	NotifyPlatform      string `env:"NOTIFY_PLATFORM" envDefault:"discord"`

	Mailgun struct {
		Domain      string `env:"MAILGUN_DOMAIN"`
		APIKey      string `env:"MAILGUN_API_KEY"`
		SenderFrom  string `env:"MAILGUN_SENDER_FROM"`
		TimeoutSecs int    `env:"MAILGUN_TIMEOUT_SECS" envDefault:"10"`
	}
	Discord struct {
		WebhookURL  string `env:"DISCORD_WEBHOOK_URL"`
		TimeoutSecs int    `env:"DISCORD_TIMEOUT_SECS" envDefault:"10"`
	}

	log   *zap.Logger
	creds map[string]string
}

func NewConfig(lc fx.Lifecycle, log *zap.Logger) *Config {
	cfg := &Config{log: log}
	env.Parse(cfg)

	creds, err := cfg.parseCreds()
	if err != nil {
		cfg.log.Sugar().Panic(err)
	}
	cfg.creds = creds

	return cfg
}

func (cfg *Config) CheckInterval() time.Duration {
	return time.Duration(cfg.CheckIntervalSecs) * time.Second
}

func (cfg *Config) CacheTTL() time.Duration {
	return time.Duration(cfg.CacheTTLSecs) * time.Second
}

func (cfg *Config) ProviderTimeout() time.Duration {
	return time.Duration(cfg.ProviderTimeoutSecs) * time.Second
}

func (cfg *Config) GetCreds() map[string]string {
	return cfg.creds
}

func (cfg *Config) parseCreds() (map[string]string, error) {
	if cfg.BasicAuthCreds == "" {
		// Auth is optional; the API logs when it is disabled.
		return nil, nil
	}

	result := make(map[string]string)
	for _, cred := range strings.Split(cfg.BasicAuthCreds, ",") {
		userPass := strings.Split(cred, ":")
		if len(userPass) != 2 {
			return nil, fmt.Errorf("failed to parse '%s', each credential should be delimited by a colon -- user1:pass1,user2:pass2", cred)
		}

		user, pass := userPass[0], userPass[1]
		result[strings.Trim(user, " ")] = strings.Trim(pass, " ")
	}

	return result, nil
}
