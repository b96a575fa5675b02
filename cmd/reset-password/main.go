// Command reset-password sets a user's password from the shell and revokes
// the user's issued tokens. Use it when the last admin is locked out.
package main

import (
	"flag"
	"os"

	"go-inventory-odoo/internal/config"
	"go-inventory-odoo/internal/repository"
	"go-inventory-odoo/pkg/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	email := flag.String("email", "admin@example.com", "account to reset")
	password := flag.String("password", "admin123", "new password")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("cmd", "reset-password").Logger()

	if len(*password) < 6 {
		logger.Fatal().Msg("Password must be at least 6 characters")
	}

	cfg := config.Load()
	db, err := database.ConnectDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database unavailable")
	}
	users := repository.NewUserRepo(db)

	user, err := users.FindByEmail(*email)
	if err != nil {
		logger.Fatal().Err(err).Str("email", *email).Msg("User not found in database")
	}
	if err := user.SetPassword(*password); err != nil {
		logger.Fatal().Err(err).Msg("Failed to hash password")
	}
	if err := users.UpdateCredentials(user.ID, user.Password, uuid.New().String()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to update password in DB")
	}

	logger.Info().Str("email", user.Email).Msg("Password reset, existing sessions revoked")
}
