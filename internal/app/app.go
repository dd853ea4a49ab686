package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/riskibarqy/livescore-sync/internal/config"
	"github.com/riskibarqy/livescore-sync/internal/domain/league"
	"github.com/riskibarqy/livescore-sync/internal/domain/match"
	"github.com/riskibarqy/livescore-sync/internal/domain/team"
	"github.com/riskibarqy/livescore-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/livescore-sync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/livescore-sync/internal/interfaces/httpapi"
	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
	"github.com/riskibarqy/livescore-sync/internal/usecase"
)

// Stores bundles the repositories of one backing store.
type Stores struct {
	Leagues league.Repository
	Teams   team.Repository
	Matches match.Repository
	Guard   usecase.SchemaGuard

	close func() error
}

func (s *Stores) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores connects the store selected by STORE_DRIVER.
func OpenStores(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		return NewMemoryStores(), nil
	case config.StoreDriverPostgres:
		db, err := OpenDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Leagues: postgres.NewLeagueRepository(db),
			Teams:   postgres.NewTeamRepository(db),
			Matches: postgres.NewMatchRepository(db),
			Guard:   postgres.NewSchemaGuard(db, logger),
			close:   db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func NewMemoryStores() *Stores {
	store := memory.NewStore()
	return &Stores{
		Leagues: store.Leagues(),
		Teams:   store.Teams(),
		Matches: store.Matches(),
		Guard:   store,
	}
}

func NewHTTPServer(cfg config.Config, stores *Stores, logger *logging.Logger) (*http.Server, error) {
	if stores == nil {
		return nil, fmt.Errorf("stores are required")
	}

	queries := usecase.NewMatchQueryService(stores.Matches, cfg.CacheTTL)
	handler := httpapi.NewHandler(queries, usecase.NewCatalogService(stores.Leagues, stores.Teams), logger)

	imagesDir := ""
	if cfg.LogoEnabled {
		imagesDir = cfg.LogoDir
	}
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ImagesDir:          imagesDir,
	}, logger)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
