package journey

import (
	"github.com/smallbiznis/freightaudit/internal/journey/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("journey",
	fx.Provide(repository.Provide),
)
