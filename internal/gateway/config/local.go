package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"l2wp/internal/archive"
	"l2wp/internal/cache/session"
	"l2wp/internal/recommender"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "local")
	v.SetDefault("server.port", ":8081")
	v.SetDefault("upload.max_bytes", archive.DefaultMaxBytes)
	v.SetDefault("upload.temp_dir", os.TempDir())
	v.SetDefault("signatures.path", "")
	v.SetDefault("builder.pro_installed", false)
	v.SetDefault("builder.pro_active", false)

	filter := recommender.DefaultFilterTable()
	v.SetDefault("filter.replaces", filter.Replaces)
	v.SetDefault("filter.supplements", filter.Supplements)

	v.SetDefault("preferences.backend", "sqlite")
	v.SetDefault("preferences.sqlite_path", filepath.Join("tmp", "l2wp.db"))
	v.SetDefault("database.url", "")

	v.SetDefault("media.backend", "memory")
	v.SetDefault("media.dir", filepath.Join("tmp", "media"))
	v.SetDefault("media.base_url", "")
	v.SetDefault("media.s3.region", "us-east-1")
	v.SetDefault("media.s3.bucket", "l2wp-media")

	v.SetDefault("plugins.backend", "memory")
	v.SetDefault("plugins.dir", filepath.Join("tmp", "plugins"))
	v.SetDefault("plugins.download_url", "https://downloads.wordpress.org/plugin/%s.latest-stable.zip")

	v.SetDefault("fields.backend", "null")
	v.SetDefault("fields.static_path", "")
	v.SetDefault("placeholder.contexts_path", "")

	v.SetDefault("session.ttl", session.DefaultTTL)
	v.SetDefault("session.max_entries", session.DefaultMaxEntries)
}

// loadS3Config points local environments at the compose minio with its
// default credentials; elsewhere everything comes from configuration.
func loadS3Config(v *viper.Viper, env string) S3Config {
	local := strings.EqualFold(strings.TrimSpace(env), "local")
	cfg := S3Config{
		Endpoint:  strings.TrimSpace(v.GetString("media.s3.endpoint")),
		Region:    firstNonEmpty(strings.TrimSpace(v.GetString("media.s3.region")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(v.GetString("media.s3.access_key")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(v.GetString("media.s3.secret_key")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    strings.TrimSpace(v.GetString("media.s3.bucket")),
		UseSSL:    true,
	}
	if v.IsSet("media.s3.use_ssl") {
		cfg.UseSSL = v.GetBool("media.s3.use_ssl")
	}
	if local {
		cfg.Endpoint = firstNonEmpty(cfg.Endpoint, "minio:9000")
		cfg.AccessKey = firstNonEmpty(cfg.AccessKey, "l2wp")
		cfg.SecretKey = firstNonEmpty(cfg.SecretKey, "l2wp12345")
		cfg.UseSSL = false
	}
	return cfg
}
