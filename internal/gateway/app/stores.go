package app

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"

	documentcache "l2wp/internal/cache/document"
	"l2wp/internal/fields"
	"l2wp/internal/gateway/config"
	documentrepo "l2wp/internal/gateway/repository/document"
	"l2wp/internal/gateway/repository/media"
	"l2wp/internal/gateway/repository/preference"
	"l2wp/internal/placeholder"
	"l2wp/internal/recommender"
	"l2wp/internal/registry"
	"l2wp/internal/translator"
)

type gatewayStores struct {
	documents   translator.DocumentStore
	media       media.Store
	preferences recommender.PreferenceStore
	registry    registry.Registry
	fields      *fields.Set
	contexts    placeholder.ContextSource
	closers     []func() error
}

func initStores(cfg *config.Config) (*gatewayStores, error) {
	s := &gatewayStores{}
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		s.closers = append(s.closers, db.Close)
	}

	steps := []func(*config.Config, *sql.DB) error{
		s.initDocuments,
		s.initMedia,
		s.initPreferences,
		s.initRegistry,
		s.initFields,
		s.initContexts,
	}
	for _, step := range steps {
		if err := step(cfg, db); err != nil {
			_ = s.close()
			return nil, err
		}
	}
	return s, nil
}

func (s *gatewayStores) initDocuments(_ *config.Config, db *sql.DB) error {
	var origin documentcache.Store
	if db != nil {
		origin = documentrepo.NewPostgresStore(db)
		log.Printf("document store: postgres")
	} else {
		origin = documentrepo.NewMemoryStore()
		log.Printf("document store: in-memory")
	}
	s.documents = documentcache.NewCachedStore(origin, documentcache.DefaultCacheConfig())
	return nil
}

func (s *gatewayStores) initMedia(cfg *config.Config, _ *sql.DB) error {
	switch cfg.Media.Backend {
	case "s3":
		if !cfg.Media.S3.CanUseS3() {
			return fmt.Errorf("media store: s3 config incomplete (endpoint, access key, secret key and bucket are required)")
		}
		s3Cfg := media.S3Config{
			Endpoint:  cfg.Media.S3.Endpoint,
			Region:    cfg.Media.S3.Region,
			AccessKey: cfg.Media.S3.AccessKey,
			SecretKey: cfg.Media.S3.SecretKey,
			Bucket:    cfg.Media.S3.Bucket,
			UseSSL:    cfg.Media.S3.UseSSL,
		}
		store, err := media.NewS3Store(s3Cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize media s3 store: %w", err)
		}
		log.Printf("media store: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
		s.media = store
	case "disk":
		baseURL := cfg.Media.BaseURL
		if baseURL == "" {
			baseURL = "/media"
		}
		s.media = media.NewDiskStore(cfg.Media.Dir, baseURL)
		log.Printf("media store: disk dir=%s", cfg.Media.Dir)
	default:
		s.media = media.NewMemoryStore()
		log.Printf("media store: in-memory")
	}
	return nil
}

func (s *gatewayStores) initPreferences(cfg *config.Config, db *sql.DB) error {
	switch cfg.Preferences.Backend {
	case "postgres":
		s.preferences = preference.NewPostgresStore(db)
	case "memory":
		s.preferences = preference.NewMemoryStore()
	default:
		store, err := preference.OpenSQLite(cfg.Preferences.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open preference store: %w", err)
		}
		s.closers = append(s.closers, store.Close)
		s.preferences = store
	}
	log.Printf("preference store: %s", cfg.Preferences.Backend)
	return nil
}

func (s *gatewayStores) initRegistry(cfg *config.Config, _ *sql.DB) error {
	if cfg.Plugins.Backend != "dir" {
		s.registry = registry.NewMemoryRegistry()
		return nil
	}
	reg, err := registry.NewDirRegistry(cfg.Plugins.Dir, cfg.Plugins.DownloadURL)
	if err != nil {
		return fmt.Errorf("failed to open plugin dir: %w", err)
	}
	s.registry = reg
	return nil
}

func (s *gatewayStores) initFields(cfg *config.Config, db *sql.DB) error {
	s.fields = fields.NewSet()
	switch cfg.Fields.Backend {
	case "static":
		if err := fields.LoadStatic(cfg.Fields.StaticPath, s.fields); err != nil {
			return fmt.Errorf("failed to load field definitions: %w", err)
		}
	case "postgres":
		for _, ns := range fields.Namespaces {
			s.fields.Register(ns, fields.NewPostgres(db, ns))
		}
	}
	return nil
}

func (s *gatewayStores) initContexts(cfg *config.Config, _ *sql.DB) error {
	if cfg.Placeholder.ContextsPath == "" {
		s.contexts = placeholder.NewMemoryContexts()
		return nil
	}
	contexts, err := placeholder.LoadContexts(cfg.Placeholder.ContextsPath)
	if err != nil {
		return fmt.Errorf("failed to load placeholder contexts: %w", err)
	}
	s.contexts = contexts
	return nil
}

// close runs closers in reverse order of opening.
func (s *gatewayStores) close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
