package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/auth/jwt"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/migrations"
	"github.com/pharmastock/pharmastock-backend/pkg/config"
	"github.com/pharmastock/pharmastock-backend/pkg/database"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/pharmastock/pharmastock-backend/pkg/permissions"
)

const serviceName = "pharmacy-migrate"

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	status := flag.Bool("status", false, "print migration status and exit")
	createAdmin := flag.String("create-admin", "", "create an admin user, given as username:password")
	flag.Parse()

	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch {
	case *status:
		if err := migrations.Status(ctx, db.DB.DB); err != nil {
			log.Fatal().Err(err).Msg("failed to read migration status")
		}
		return
	case *down:
		if err := migrations.Down(ctx, db.DB.DB); err != nil {
			log.Fatal().Err(err).Msg("migration rollback failed")
		}
	default:
		if err := migrations.Up(ctx, db.DB.DB); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
	}

	version, err := migrations.Version(ctx, db.DB.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read schema version")
	}
	log.Info().Int64("version", version).Msg("schema is up to date")

	if *createAdmin == "" {
		return
	}

	username, password, ok := strings.Cut(*createAdmin, ":")
	if !ok || username == "" || password == "" {
		log.Fatal().Msg("-create-admin expects username:password")
	}

	auth := service.NewAuthService(repository.NewUserRepository(db), jwt.NewManager(&cfg.JWT), log)
	user, err := auth.CreateUser(ctx, username, password, permissions.RoleAdmin)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create admin user")
	}
	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("admin user created")
}
