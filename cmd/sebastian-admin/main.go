// Package main is the entry point for the Sebastian Contacts admin CLI.
// It provides account management for operators, bypassing the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/sebastian-contacts/internal/config"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
	"github.com/prn-tf/sebastian-contacts/internal/repository/postgres"
	"github.com/prn-tf/sebastian-contacts/internal/repository/sqlite"
	"github.com/prn-tf/sebastian-contacts/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Sebastian Contacts Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		if err := runUserCommand(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// runUserCommand dispatches the user subcommands.
func runUserCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sebastian-admin user <create|list|revoke-token> [flags]")
	}

	subcommand := args[0]

	flags := flag.NewFlagSet("user "+subcommand, flag.ExitOnError)
	configPath := flags.String("config", "", "path to config file")
	username := flags.String("username", "", "account username")
	name := flags.String("name", "", "account display name")
	password := flags.String("password", "", "account password")
	_ = flags.Parse(args[1:])

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.MustLoad(*configPath)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	repos, health, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer health.Close()

	switch subcommand {
	case "create":
		if *username == "" || *password == "" || *name == "" {
			return fmt.Errorf("user create requires -username, -name, and -password")
		}
		userService := service.NewUserService(repos.User, service.UserOptions{
			BcryptCost: cfg.Auth.BcryptCost,
		}, logger)
		if err := userService.Register(ctx, service.RegisterInput{
			Username: *username,
			Password: *password,
			Name:     *name,
		}); err != nil {
			return err
		}
		fmt.Printf("user %q created\n", *username)
		return nil

	case "list":
		users, err := repos.User.List(ctx)
		if err != nil {
			return err
		}
		now := time.Now()
		for _, user := range users {
			session := "-"
			if user.TokenValidAt(now) {
				session = "active"
			}
			fmt.Printf("%s\t%s\t%s\n", user.Username, user.Name, session)
		}
		return nil

	case "revoke-token":
		if *username == "" {
			return fmt.Errorf("user revoke-token requires -username")
		}
		user, err := repos.User.GetByUsername(ctx, *username)
		if err != nil {
			return err
		}
		authService := service.NewAuthService(repos.User, nil, service.AuthOptions{}, logger)
		if err := authService.Logout(ctx, user); err != nil {
			return err
		}
		fmt.Printf("active session for %q revoked\n", *username)
		return nil

	default:
		return fmt.Errorf("unknown user subcommand: %s", subcommand)
	}
}

// openRepositories opens the configured backend without running
// migrations; the schema is expected to exist already.
func openRepositories(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.Config{
			Path:            cfg.Database.Path,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			JournalMode:     cfg.Database.JournalMode,
			BusyTimeout:     cfg.Database.BusyTimeout,
			SynchronousMode: cfg.Database.SynchronousMode,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return &repository.Repositories{
			User:    sqlite.NewUserRepository(db),
			Contact: sqlite.NewContactRepository(db),
			Address: sqlite.NewAddressRepository(db),
		}, db, nil

	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		return &repository.Repositories{
			User:    postgres.NewUserRepository(db),
			Contact: postgres.NewContactRepository(db),
			Address: postgres.NewAddressRepository(db),
		}, db, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

func printUsage() {
	fmt.Println(`Sebastian Contacts Admin CLI

Usage:
  sebastian-admin <command> [arguments]

Commands:
  user        Manage accounts (create, list, revoke-token)
  version     Print version information
  help        Show this help message

Examples:
  sebastian-admin user create -username alice -name "Alice" -password secret
  sebastian-admin user list
  sebastian-admin user revoke-token -username alice
  sebastian-admin user create -config /etc/sebastian/config.yaml -username bob -name "Bob" -password secret`)
}
