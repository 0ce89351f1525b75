package extraction

import (
	"time"

	"github.com/smallbiznis/freightaudit/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("extraction",
	fx.Provide(provideParser),
)

func provideParser(cfg config.Config) Parser {
	return NewHTTPParser(Config{
		Endpoint: cfg.ExtractionEndpoint,
		APIKey:   cfg.ExtractionAPIKey,
		Timeout:  time.Duration(cfg.ExtractionTimeoutSec) * time.Second,
	})
}
