package app

import (
	"context"
	"fmt"

	"l2wp/internal/archive"
	"l2wp/internal/cache/session"
	"l2wp/internal/detector"
	"l2wp/internal/gateway/config"
	"l2wp/internal/gateway/handler"
	"l2wp/internal/gateway/handler/rpc"
	"l2wp/internal/gateway/server"
	"l2wp/internal/gateway/service/converter"
	"l2wp/internal/importer"
	"l2wp/internal/placeholder"
	"l2wp/internal/recommender"
	"l2wp/internal/signature"
	"l2wp/internal/translator"
)

type App struct {
	server *server.Server
	parts  *Components
}

// Components is the wired converter with the stores behind it.
type Components struct {
	Service *converter.Service
	stores  *gatewayStores
}

func (c *Components) Close() error {
	c.Service.Close()
	return c.stores.close()
}

// Build wires every component from cfg.
func Build(cfg *config.Config) (*Components, error) {
	table, err := signature.Load(cfg.Signatures)
	if err != nil {
		return nil, fmt.Errorf("failed to load signature table: %w", err)
	}
	stores, err := initStores(cfg)
	if err != nil {
		return nil, err
	}

	rec := recommender.New(table, stores.registry,
		recommender.WithEnvironment(cfg.Builder),
		recommender.WithFilterTable(cfg.Filter),
		recommender.WithPreferences(stores.preferences),
	)
	tr := translator.New()
	imp := importer.New(rec, stores.documents,
		importer.WithTranslator(tr),
		importer.WithAssetStore(stores.media),
	)
	svc := converter.New(converter.Deps{
		Analyzer:    &archive.Analyzer{TempDir: cfg.Upload.TempDir},
		Validator:   archive.NewValidator(cfg.Upload.MaxBytes),
		Sessions:    session.New(cfg.Session.MaxEntries, cfg.Session.TTL),
		Detector:    detector.New(table),
		Recommender: rec,
		Translator:  tr,
		Exporter:    translator.NewExporter(tr, stores.documents),
		Importer:    imp,
		Resolver:    placeholder.NewResolver(stores.contexts, stores.fields),
		Fields:      stores.fields,
	})
	return &Components{Service: svc, stores: stores}, nil
}

func New(args []string) (*App, error) {
	cfg, err := config.Load(args)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg *config.Config) (*App, error) {
	parts, err := Build(cfg)
	if err != nil {
		return nil, err
	}

	apiHandler := handler.NewConverterHandler(parts.Service)
	rpcHandler := rpc.NewConverterHandler(parts.Service)

	// Routing & Server
	mux := server.NewMux(apiHandler, rpcHandler, handler.NewMediaHandler(parts.stores.media))
	srv := server.New(cfg.Port, mux)

	return &App{
		server: srv,
		parts:  parts,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.parts.Close(); err == nil {
		err = cerr
	}
	return err
}
