// Package di provides dependency injection configuration for the debate server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/Liiiii222/debate/internal/config"
	"github.com/Liiiii222/debate/internal/di/providers"
	"github.com/Liiiii222/debate/internal/logger"
	"github.com/Liiiii222/debate/internal/realtime"
	"github.com/Liiiii222/debate/internal/service"
	"github.com/Liiiii222/debate/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideStore)

	// Business services
	do.Provide(injector, providers.ProvideMatchmakingService)
	do.Provide(injector, providers.ProvideInvitationService)

	// Realtime relay
	do.Provide(injector, providers.ProvideRelayManager)
	do.Provide(injector, providers.ProvideRelayHandler)

	// Workers
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideScheduler)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap triggers initialization of every service so startup failures
// surface before the process reports ready.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)

	_ = do.MustInvoke[*service.MatchmakingService](injector)
	_ = do.MustInvoke[*service.InvitationService](injector)

	_ = do.MustInvoke[*providers.RelayManagerHandle](injector)
	_ = do.MustInvoke[*realtime.Handler](injector)

	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	_ = do.MustInvoke[*providers.SchedulerHandle](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
