package providers

import (
	"github.com/samber/do/v2"

	"github.com/Liiiii222/debate/internal/config"
	"github.com/Liiiii222/debate/internal/logger"
	"github.com/Liiiii222/debate/internal/store"
)

// StoreHandle wraps the document store for explicit shutdown. The store is
// closed manually after the container shuts down so every service flushes
// before the database does.
type StoreHandle struct {
	*store.Store
}

// Shutdown closes the underlying database.
func (h *StoreHandle) Shutdown() error {
	return h.Store.Close()
}

// ProvideStore provides the BadgerDB-backed document store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := store.New(cfg.Data.Path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Document store opened", "path", cfg.Data.Path)

	return &StoreHandle{Store: st}, nil
}
