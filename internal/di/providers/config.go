// Package providers contains the dependency injection providers for all
// application services.
package providers

import (
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/Liiiii222/debate/internal/config"
)

const shutdownTimeout = 10 * time.Second

// ProvideConfig loads the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.Load(os.Args[1:])
}
