package providers

import (
	"github.com/samber/do/v2"

	"github.com/Liiiii222/debate/internal/config"
	"github.com/Liiiii222/debate/internal/logger"
	"github.com/Liiiii222/debate/internal/service"
)

// ProvideMatchmakingService provides the matchmaking service.
func ProvideMatchmakingService(i do.Injector) (*service.MatchmakingService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMatchmakingService(
		storeHandle.Store,
		log.Logger,
		cfg.Matchmaking.ActivityWindow,
		cfg.Matchmaking.CandidateLimit,
	), nil
}

// ProvideInvitationService provides the invitation service.
func ProvideInvitationService(i do.Injector) (*service.InvitationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewInvitationService(storeHandle.Store, log.Logger, cfg.Invitations.TTL), nil
}
