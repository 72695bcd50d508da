package setup

import (
	"context"
	"fmt"

	"github.com/ligaac/practica/backend/internal/handler"
	"github.com/ligaac/practica/backend/internal/service"
	"github.com/ligaac/practica/backend/internal/storage/fs"
	"github.com/ligaac/practica/backend/internal/storage/pg"
	"github.com/ligaac/practica/backend/internal/utils/exporttoken"
	"github.com/ligaac/practica/backend/internal/utils/identity"
	"github.com/ligaac/practica/backend/internal/utils/richtext"
	"github.com/ligaac/practica/backend/internal/utils/tabular"
	"github.com/ligaac/practica/shared/config"
	mw "github.com/ligaac/practica/shared/middleware"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Media          *fs.Storage
	Handler        *handler.Handler
	AuthMiddleware *mw.Auth
	CVCollector    *service.CVCollector
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Public.MigrateOnStart {
		if err := storage.Migrate(ctx); err != nil {
			storage.Cleanup()
			return nil, err
		}
	}

	media, err := fs.New(cfg.Public.MediaPath)
	if err != nil {
		storage.Cleanup()
		return nil, fmt.Errorf("media storage: %w", err)
	}

	signer, err := exporttoken.NewHMACSigner([]byte(cfg.Private.SecretKey), exporttoken.ExportApplicantsSalt, cfg.Public.ExportTokenTTL)
	if err != nil {
		storage.Cleanup()
		return nil, fmt.Errorf("export signer: %w", err)
	}
	formats, err := tabular.ByNames(cfg.Public.ExportFormats)
	if err != nil {
		storage.Cleanup()
		return nil, fmt.Errorf("export formats: %w", err)
	}

	directory := identity.New(
		cfg.Public.AuthService.URL,
		cfg.Private.AuthServiceAPIKey,
		identity.Dialect(cfg.Public.AuthService.Dialect),
		cfg.Public.AuthService.Timeout,
	)

	tokens := service.NewTokens(storage, cfg.Public.TokenTTL)
	auth := service.NewAuth(storage, directory, tokens)
	scope := service.NewScopeFilter(storage)
	export := service.NewExport(storage, media, signer, formats, cfg.Public.ExternalURL, cfg.Public.ExportLocation())
	students := service.NewStudent(storage, media)
	catalogue := service.NewCatalogue(storage)
	admin := service.NewAdmin(storage, scope, export, richtext.New())

	h := handler.New(auth, tokens, students, catalogue, admin, export, handler.Readiness{storage, media}, cfg)

	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Media:          media,
		Handler:        h,
		AuthMiddleware: mw.NewAuth(tokens),
		CVCollector:    service.NewCVCollector(storage, media, cfg.Public.CVGCGrace),
	}, nil
}
