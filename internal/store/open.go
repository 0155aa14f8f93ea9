package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kkkkikiki/gameadmin/internal/config"
	"github.com/kkkkikiki/gameadmin/internal/database"
)

// Open connects the configured backend and wraps it with metrics
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Store.Backend {
	case config.BackendFirestore:
		s, err = NewFirestoreStore(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
	case config.BackendPostgres:
		db, dbErr := database.NewPostgres(ctx, cfg.Database, log)
		if dbErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, dbErr)
		}
		s = NewSQLStore(db)
	case config.BackendSQLite:
		db, dbErr := database.NewSQLite(ctx, cfg.SQLite.GetDSN())
		if dbErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, dbErr)
		}
		s = NewSQLStore(db)
	case config.BackendMemory:
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("document store ready", zap.String("backend", cfg.Store.Backend))
	return Instrument(s), nil
}
