package providers

import (
	"github.com/samber/do/v2"

	"github.com/Liiiii222/debate/internal/config"
	"github.com/Liiiii222/debate/internal/logger"
	"github.com/Liiiii222/debate/internal/realtime"
	"github.com/Liiiii222/debate/internal/validation"
)

// RelayManagerHandle wraps the relay manager with shutdown capability.
type RelayManagerHandle struct {
	*realtime.Manager
}

// Shutdown implements do.Shutdownable.
func (h *RelayManagerHandle) Shutdown() error {
	h.Manager.Shutdown()
	return nil
}

// ProvideRelayManager provides the presence relay manager.
func ProvideRelayManager(i do.Injector) (*RelayManagerHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	manager := realtime.NewManager(
		storeHandle.Store,
		log.Logger,
		cfg.Matchmaking.ActivityWindow,
		cfg.Realtime.ClientBuffer,
	)

	return &RelayManagerHandle{Manager: manager}, nil
}

// ProvideRelayHandler provides the relay HTTP handler.
func ProvideRelayHandler(i do.Injector) (*realtime.Handler, error) {
	managerHandle := do.MustInvoke[*RelayManagerHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return realtime.NewHandler(managerHandle.Manager, validator, log.Logger), nil
}
