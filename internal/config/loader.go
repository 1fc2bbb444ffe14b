package config

import (
	"time"

	"github.com/stratix/import-engine/internal/db"
	"github.com/stratix/import-engine/internal/importer"
	"github.com/stratix/import-engine/internal/storage"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	ListenAddr string
	Database   db.Config
	Blob       storage.S3Config
	Import     importer.Config
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		Database:   db.DefaultConfig(),
		Import:     importer.DefaultConfig(),
	}
}

// Load reads config.yaml from configPath, applying environment
// overrides with the STRATIX prefix (STRATIX_DATABASE_HOST and so on).
// A missing file is not an error; defaults and env vars apply.
func Load(configPath string, log *logrus.Logger) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("STRATIX")

	v.BindEnv("server.addr")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("blob.bucket")
	v.BindEnv("blob.prefix")
	v.BindEnv("blob.region")
	v.BindEnv("import.sync_row_limit")
	v.BindEnv("import.flush_every")
	v.BindEnv("import.download_timeout_seconds")

	if err := v.ReadInConfig(); err != nil {
		log.Info("no config.yaml found, using defaults and env vars")
	} else {
		log.WithField("file", v.ConfigFileUsed()).Info("loaded config file")
	}

	if v.IsSet("server.addr") {
		cfg.ListenAddr = v.GetString("server.addr")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("blob.bucket") {
		cfg.Blob.Bucket = v.GetString("blob.bucket")
	}
	if v.IsSet("blob.prefix") {
		cfg.Blob.Prefix = v.GetString("blob.prefix")
	}
	if v.IsSet("blob.region") {
		cfg.Blob.Region = v.GetString("blob.region")
	}
	if v.IsSet("import.sync_row_limit") {
		cfg.Import.SyncRowLimit = v.GetInt("import.sync_row_limit")
	}
	if v.IsSet("import.flush_every") {
		cfg.Import.FlushEvery = v.GetInt("import.flush_every")
	}
	if v.IsSet("import.download_timeout_seconds") {
		cfg.Import.DownloadTimeout = time.Duration(v.GetInt("import.download_timeout_seconds")) * time.Second
	}

	return cfg, nil
}
