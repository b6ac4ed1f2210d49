package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"l2wp/internal/recommender"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	Upload      UploadConfig
	Signatures  string
	Builder     recommender.Environment
	Filter      recommender.FilterTable
	Preferences PreferencesConfig
	Media       MediaConfig
	Plugins     PluginsConfig
	Fields      FieldsConfig
	Placeholder PlaceholderConfig
	Session     SessionConfig
}

type UploadConfig struct {
	MaxBytes int64
	TempDir  string
}

type PreferencesConfig struct {
	Backend    string
	SQLitePath string
}

type MediaConfig struct {
	Backend string
	Dir     string
	BaseURL string
	S3      S3Config
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CanUseS3 reports whether enough is configured to reach a bucket.
func (c S3Config) CanUseS3() bool {
	return strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

type PluginsConfig struct {
	Backend     string
	Dir         string
	DownloadURL string
}

type FieldsConfig struct {
	Backend    string
	StaticPath string
}

// PlaceholderConfig points at a YAML file of render contexts; empty means
// no contexts and placeholders render unchanged.
type PlaceholderConfig struct {
	ContextsPath string
}

type SessionConfig struct {
	TTL        time.Duration
	MaxEntries int
}

// Load reads .env, the optional l2wp.yaml and L2WP_* variables, then
// applies the --port flag and PORT.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	port := fs.String("port", "", "server port")
	configFile := fs.String("config", "", "config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v, err := NewViper(*configFile)
	if err != nil {
		return nil, err
	}
	if *port != "" {
		v.Set("server.port", *port)
	}
	if envPort := strings.TrimSpace(os.Getenv("PORT")); envPort != "" {
		v.Set("server.port", envPort)
	}
	return FromViper(v)
}

// NewViper builds a viper instance with defaults, env binding and the
// config file. An explicit file must exist; the searched one is optional.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("L2WP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
		return v, nil
	}
	v.SetConfigName("l2wp")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "l2wp"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read l2wp.yaml: %w", err)
		}
	}
	return v, nil
}

func FromViper(v *viper.Viper) (*Config, error) {
	env := firstNonEmpty(strings.TrimSpace(v.GetString("app.env")), "local")
	cfg := &Config{
		Port:        normalizePort(v.GetString("server.port")),
		Env:         env,
		DatabaseURL: strings.TrimSpace(v.GetString("database.url")),
		Upload: UploadConfig{
			MaxBytes: v.GetInt64("upload.max_bytes"),
			TempDir:  strings.TrimSpace(v.GetString("upload.temp_dir")),
		},
		Signatures: strings.TrimSpace(v.GetString("signatures.path")),
		Builder: recommender.Environment{
			ProInstalled: v.GetBool("builder.pro_installed"),
			ProActive:    v.GetBool("builder.pro_active"),
		},
		Filter: recommender.FilterTable{
			Replaces:    v.GetStringSlice("filter.replaces"),
			Supplements: v.GetStringMapStringSlice("filter.supplements"),
		},
		Preferences: PreferencesConfig{
			Backend:    strings.ToLower(strings.TrimSpace(v.GetString("preferences.backend"))),
			SQLitePath: v.GetString("preferences.sqlite_path"),
		},
		Media: MediaConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("media.backend"))),
			Dir:     v.GetString("media.dir"),
			BaseURL: strings.TrimSpace(v.GetString("media.base_url")),
			S3:      loadS3Config(v, env),
		},
		Plugins: PluginsConfig{
			Backend:     strings.ToLower(strings.TrimSpace(v.GetString("plugins.backend"))),
			Dir:         v.GetString("plugins.dir"),
			DownloadURL: v.GetString("plugins.download_url"),
		},
		Fields: FieldsConfig{
			Backend:    strings.ToLower(strings.TrimSpace(v.GetString("fields.backend"))),
			StaticPath: v.GetString("fields.static_path"),
		},
		Placeholder: PlaceholderConfig{
			ContextsPath: strings.TrimSpace(v.GetString("placeholder.contexts_path")),
		},
		Session: SessionConfig{
			TTL:        v.GetDuration("session.ttl"),
			MaxEntries: v.GetInt("session.max_entries"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	checks := []struct {
		key, value string
		allowed    []string
	}{
		{"preferences.backend", c.Preferences.Backend, []string{"sqlite", "postgres", "memory"}},
		{"media.backend", c.Media.Backend, []string{"memory", "disk", "s3"}},
		{"plugins.backend", c.Plugins.Backend, []string{"memory", "dir"}},
		{"fields.backend", c.Fields.Backend, []string{"null", "static", "postgres"}},
	}
	for _, chk := range checks {
		ok := false
		for _, a := range chk.allowed {
			ok = ok || chk.value == a
		}
		if !ok {
			return fmt.Errorf("invalid %s %q (want one of %s)", chk.key, chk.value, strings.Join(chk.allowed, ", "))
		}
	}
	needsDB := c.Preferences.Backend == "postgres" || c.Fields.Backend == "postgres"
	if needsDB && c.DatabaseURL == "" {
		return fmt.Errorf("database.url is required by the postgres backends")
	}
	if c.Fields.Backend == "static" && strings.TrimSpace(c.Fields.StaticPath) == "" {
		return fmt.Errorf("fields.static_path is required by the static field backend")
	}
	return nil
}

func normalizePort(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ":8081"
	}
	if strings.HasPrefix(p, ":") || strings.Contains(p, ":") {
		return p
	}
	return ":" + p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
