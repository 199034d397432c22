// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"vpndrop/files-api/security"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	hashCode       = pflag.String("hash-code", "", "Hashes the given 14 character admin code and exits")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
)

// AdminCodeLength is the exact length every admin access code must
// have. Checked before any hashing is attempted
const AdminCodeLength = 14

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
	v.BindEnv("host.cors_origins", "host_cors_origins")
	v.BindEnv("host.public_dir", "host_public_dir")

	v.BindEnv("admin.code_hash", "admin_code_hash")

	v.BindEnv("storage.data_dir", "storage_data_dir")

	v.BindEnv("upload.max_size", "upload_max_size")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("storage.data_dir", "./data")

	v.SetDefault("upload.max_size", 50)

	if err := v.ReadInConfig(); err != nil {
		// Running from envs alone is fine, a broken config file isn't
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if *hashCode != "" {
		if len(*hashCode) != AdminCodeLength {
			return fmt.Errorf("admin code must be exactly %d characters long", AdminCodeLength)
		}

		encoded, err := security.New().GenerateFromCode(*hashCode)
		if err != nil {
			return fmt.Errorf("failed to hash admin code, %w", err)
		}

		fmt.Println("Put this into your config.toml under admin.code_hash (or the ADMIN_CODE_HASH env):\n\n" + encoded)
		os.Exit(0)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetString("admin.code_hash") == "" {
		fmt.Println("WARNING: No admin code hash is configured, so the admin endpoints can't be used.\nRun the server with --hash-code <your 14 character code> to generate one.")
		os.Exit(0)
	}

	dataDir := v.GetString("storage.data_dir")
	if dataDir == "" {
		return errors.New("storage.data_dir can't be empty")
	}

	// The registry file and the blob directory both live under the data
	// dir. Not being able to create them is fatal
	if err := os.MkdirAll(filepath.Join(dataDir, "uploads"), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory, %w", err)
	}

	v.Set("storage.uploads_dir", filepath.Join(dataDir, "uploads"))
	v.Set("storage.registry_file", filepath.Join(dataDir, "files.json"))

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}
