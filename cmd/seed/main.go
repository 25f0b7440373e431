// Command seed migrates the schema and creates the initial administrator
// from the ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME settings. Running it
// again leaves an existing account untouched.
package main

import (
	"github.com/appcontrol-api/config"
	"github.com/appcontrol-api/database"
	"github.com/appcontrol-api/logging"
	"github.com/appcontrol-api/services"
)

func main() {
	logging.Info().Msg("Starting database seed...")

	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.AdminEmail == "" {
		logging.Fatal().Msg("ADMIN_EMAIL must be set")
	}

	if err := database.Initialize(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.Close()

	// The admin bootstrap never touches uploaded files
	users := services.NewUserService(database.DB, nil)
	created, password, err := users.EnsureAdmin(cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create administrator")
	}

	switch {
	case !created:
		logging.Info().Str("email", cfg.AdminEmail).Msg("Administrator already exists")
	case cfg.AdminPassword == "":
		logging.Warn().
			Str("email", cfg.AdminEmail).
			Str("password", password).
			Msg("Administrator created with a generated password; change it after the first sign in")
	default:
		logging.Info().Str("email", cfg.AdminEmail).Msg("Administrator created")
	}

	logging.Info().Msg("Database seed completed successfully!")
}
