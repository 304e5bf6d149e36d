package config

import (
	"reflect"
	"strings"

	"inventory-manager/core/database"
	"inventory-manager/core/logger"
	"inventory-manager/core/mailer"
	"inventory-manager/core/server"
	"inventory-manager/core/storage"
	"inventory-manager/feature/sync/gateway"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Gateway holds configuration for the system-of-record gateway.
	Gateway gateway.Config `mapstructure:"gateway"`
	// Sync holds configuration for the sync pipeline scheduler.
	Sync SyncConfig `mapstructure:"sync"`
	// Storage holds configuration for the object storage (snapshot archive).
	Storage storage.Config `mapstructure:"storage"`
	// Mail holds configuration for reservation notifications.
	Mail mailer.Config `mapstructure:"mail"`
}

// SyncConfig controls the interval scheduler for the sync pipeline.
type SyncConfig struct {
	// IntervalMinutes is the time between automatic sync cycles. Zero disables the loop.
	IntervalMinutes int `mapstructure:"interval_minutes" default:"30"`
	// RunOnStart triggers one cycle immediately when the server starts.
	RunOnStart bool `mapstructure:"run_on_start" default:"false"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values
// in Viper based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set the default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
