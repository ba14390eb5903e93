package providers

import (
	"github.com/samber/do/v2"

	"github.com/Liiiii222/debate/internal/config"
	"github.com/Liiiii222/debate/internal/logger"
	"github.com/Liiiii222/debate/internal/validation"
)

// ProvideLogger provides the application logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	}), nil
}

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
