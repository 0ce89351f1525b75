package bulkjob

import (
	"github.com/smallbiznis/freightaudit/internal/bulkjob/repository"
	"github.com/smallbiznis/freightaudit/internal/bulkjob/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bulkjob",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
