// Package app resolves the dependencies shared by every front end: the
// catalog, the scoring engine, the draft store, the report repository and
// the renderer. Front ends receive an *App and add only their transport.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/config"
	"github.com/HendryAvila/lifetest/internal/repo"
	"github.com/HendryAvila/lifetest/internal/report"
	"github.com/HendryAvila/lifetest/internal/scoring"
	"github.com/HendryAvila/lifetest/internal/store"
	"github.com/HendryAvila/lifetest/internal/templates"
)

// openFirestore is a package-level var to allow test injection.
var openFirestore = func(ctx context.Context, cfg config.FirebaseConfig) (report.Repository, error) {
	return repo.NewFirestoreRepository(ctx, cfg.CredentialsFile, cfg.ProjectID)
}

// App holds the shared dependencies.
type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Catalog  *catalog.Catalog
	Engine   *scoring.Engine
	Renderer *templates.Renderer

	// Drafts always live in the local SQLite store.
	Drafts *store.Store

	// Reports is the local store or Firestore, per Config.Store.
	Reports report.Repository
}

// New loads the catalog and opens storage. A catalog that fails its
// integrity checks is fatal.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("creating template renderer: %w", err)
	}

	st, err := store.New(store.Config{DataDir: cfg.DataDir})
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		Catalog:  cat,
		Engine:   scoring.NewEngine(cat),
		Renderer: renderer,
		Drafts:   st,
		Reports:  st,
	}

	if cfg.Store == config.StoreFirestore {
		fs, err := openFirestore(ctx, cfg.Firebase)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("opening firestore: %w", err)
		}
		a.Reports = fs
	}

	log.Debug().
		Str("store", cfg.Store).
		Str("data_dir", cfg.DataDir).
		Int("max_total", cat.MaxScore(catalog.SectionDiet)+cat.MaxScore(catalog.SectionActivity)+cat.MaxScore(catalog.SectionHealth)).
		Msg("dependencies ready")
	return a, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		cat, err := catalog.Load()
		if err != nil {
			return nil, fmt.Errorf("loading bundled catalog: %w", err)
		}
		return cat, nil
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	return cat, nil
}

// Close releases storage. It is safe to call once.
func (a *App) Close() error {
	var errs []error
	if a.Reports != report.Repository(a.Drafts) {
		errs = append(errs, a.Reports.Close())
	}
	errs = append(errs, a.Drafts.Close())
	return errors.Join(errs...)
}
