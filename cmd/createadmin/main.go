// Command createadmin registers a verified super-user. It is the only way to
// obtain the first account allowed to call the admin routes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"lagimmo/api/internal/config"
	"lagimmo/api/internal/database"
	"lagimmo/api/internal/log"
	"lagimmo/api/internal/mailer"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/repository"
	"lagimmo/api/internal/service"
	"lagimmo/api/internal/validation"
)

type adminInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first-name" validate:"required,max=100"`
	LastName  string `json:"last-name" validate:"required,max=100"`
	UserName  string `json:"user-name" validate:"omitempty,min=3,max=64"`
}

func main() {
	var in adminInput
	flag.StringVar(&in.Email, "email", "", "admin email")
	flag.StringVar(&in.Password, "password", os.Getenv("LAGIMMO_ADMIN_PASSWORD"), "admin password (defaults to $LAGIMMO_ADMIN_PASSWORD)")
	flag.StringVar(&in.FirstName, "first-name", "", "first name")
	flag.StringVar(&in.LastName, "last-name", "", "last name")
	flag.StringVar(&in.UserName, "user-name", "", "user name, generated from the names when empty")
	flag.Parse()

	v := validator.New()
	validation.Configure(v)
	if err := validation.FromBinding(v.Struct(in)); err != nil {
		fmt.Fprintln(os.Stderr, "createadmin:", err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := log.New(cfg.Environment, "createadmin")

	user, err := run(cfg, logger, in)
	if err != nil {
		logger.Error().Err(err).Msg("create super-user failed")
		os.Exit(1)
	}
	logger.Info().Str("user_id", user.ID).Str("user_name", user.UserName).Msg("super-user created")
}

func run(cfg *config.AppConfig, logger zerolog.Logger, in adminInput) (models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return models.User{}, err
	}
	defer dbPool.Close()

	if err := database.Migrate(ctx, dbPool); err != nil {
		return models.User{}, err
	}

	// Super-user creation issues no tokens.
	auth := service.NewAuthService(
		repository.NewUserRepository(dbPool),
		repository.NewCredentialRepository(dbPool),
		nil,
		mailer.NewLogSender(logger),
		cfg.Security,
		cfg.Mail.Templates,
		logger,
	)

	return auth.CreateSuperUser(ctx, service.SignupInput{
		UserName:  in.UserName,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
	})
}
