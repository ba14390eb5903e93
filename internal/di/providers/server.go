package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/Liiiii222/debate/internal/api"
	"github.com/Liiiii222/debate/internal/config"
	"github.com/Liiiii222/debate/internal/logger"
	"github.com/Liiiii222/debate/internal/realtime"
	"github.com/Liiiii222/debate/internal/service"
	"github.com/Liiiii222/debate/internal/validation"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server, already listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	matchmaking := do.MustInvoke[*service.MatchmakingService](i)
	invitations := do.MustInvoke[*service.InvitationService](i)
	relayHandler := do.MustInvoke[*realtime.Handler](i)
	limiterHandle := do.MustInvoke[*RateLimiterHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)

	handler := api.NewServer(
		matchmaking,
		invitations,
		relayHandler,
		limiterHandle.KeyedRateLimiter,
		validator,
		cfg.Server,
		log.Logger,
	)

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     handler,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout stays zero so SSE streams are never cut mid-connection.
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
