package providers

import (
	"github.com/samber/do/v2"

	"github.com/Liiiii222/debate/internal/config"
	"github.com/Liiiii222/debate/internal/logger"
	"github.com/Liiiii222/debate/internal/ratelimit"
	"github.com/Liiiii222/debate/internal/scheduler"
	"github.com/Liiiii222/debate/internal/service"
)

// RateLimiterHandle wraps the keyed rate limiter with shutdown capability.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRateLimiter provides the per-IP API rate limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return &RateLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}, nil
}

// SchedulerHandle wraps the job scheduler with shutdown capability.
type SchedulerHandle struct {
	*scheduler.Scheduler
}

// Shutdown implements do.Shutdownable.
func (h *SchedulerHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideScheduler provides the background job scheduler with the session
// sweep, invitation sweep, and stats broadcast registered and running.
func ProvideScheduler(i do.Injector) (*SchedulerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	matchmaking := do.MustInvoke[*service.MatchmakingService](i)
	invitations := do.MustInvoke[*service.InvitationService](i)
	relayHandle := do.MustInvoke[*RelayManagerHandle](i)

	sched := scheduler.New(log.Logger)
	sched.Add("session-sweep", cfg.Matchmaking.SweepInterval, matchmaking.SweepInactive)
	sched.Add("invitation-sweep", cfg.Invitations.SweepInterval, invitations.SweepExpired)
	sched.Add("stats-broadcast", cfg.Realtime.StatsInterval, relayHandle.Manager.BroadcastStats)
	sched.Start()

	return &SchedulerHandle{Scheduler: sched}, nil
}
