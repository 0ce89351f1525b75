package docstore

import (
	"context"
	"fmt"

	"github.com/smallbiznis/freightaudit/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("docstore",
	fx.Provide(provideStore),
)

func provideStore(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Store, error) {
	switch cfg.DocstoreDriver {
	case "gcs":
		gcs, err := NewGCS(context.Background(), cfg.DocstoreBucket)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return gcs.Close() },
		})
		return gcs, nil
	case "memory", "":
		log.Warn("docstore running in-memory; uploaded documents will not survive a restart")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported docstore driver %q", cfg.DocstoreDriver)
	}
}
