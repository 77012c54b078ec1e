// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers = []string{"sqlite", "postgres"}
)

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.path", "db_path")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("storage.access_key_id", "storage_access_key_id")
	v.BindEnv("storage.secret_access_key", "storage_secret_access_key")
	v.BindEnv("storage.bucket", "storage_bucket")
	v.BindEnv("storage.region", "storage_region")
	v.BindEnv("storage.endpoint", "storage_endpoint")
	v.BindEnv("storage.public_url", "storage_public_url")

	v.BindEnv("upload.max_size", "upload_max_size")
	v.BindEnv("upload.compress_threshold", "upload_compress_threshold")

	v.BindEnv("ffmpeg.path", "ffmpeg_path")
	v.BindEnv("ffprobe.path", "ffprobe_path")

	v.BindEnv("redis.addr", "redis_addr")

	v.BindEnv("services.transcribe_url", "services_transcribe_url")
	v.BindEnv("services.generate_url", "services_generate_url")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "database.db")

	// Sizes are configured in megabytes. 2000 leaves room for the >=1GB
	// single-strategy upload tier.
	v.SetDefault("upload.max_size", 2000)
	v.SetDefault("upload.compress_threshold", 50)

	v.SetDefault("ffmpeg.path", "ffmpeg")
	v.SetDefault("ffprobe.path", "ffprobe")

	v.SetDefault("redis.addr", "localhost:6379")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return errors.New("invalid db driver provided")
	}

	if v.GetString("db.driver") == "postgres" && v.GetString("db.dsn") == "" {
		return errors.New("db.dsn must be set when using the postgres driver")
	}

	if v.GetString("storage.access_key_id") == "" {
		return errors.New("storage access key id can't be empty")
	}
	if v.GetString("storage.secret_access_key") == "" {
		return errors.New("storage secret access key can't be empty")
	}
	if v.GetString("storage.bucket") == "" {
		return errors.New("storage bucket can't be empty")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetInt("upload.compress_threshold") <= 0 {
		return errors.New("upload.compress_threshold must be bigger than 0")
	}

	if v.GetString("services.transcribe_url") == "" {
		return errors.New("no transcription service URL provided")
	}

	if v.GetString("services.generate_url") == "" {
		return errors.New("no content generation service URL provided")
	}

	// Store byte values from here on
	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	v.Set("upload.compress_threshold", v.GetInt64("upload.compress_threshold")<<20)

	return nil
}
