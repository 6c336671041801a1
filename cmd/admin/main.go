// Command admin runs maintenance tasks against the site database:
//
//	admin create-user -email admin@example.org -password secret123
//	admin cleanup-media [-dry-run]
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/elemevent/site/internal/config"
	"github.com/elemevent/site/internal/database"
	"github.com/elemevent/site/internal/logger"
	"github.com/elemevent/site/internal/media"
	"github.com/elemevent/site/internal/repository"
)

const usage = `usage:
  admin create-user -email EMAIL -password PASSWORD
  admin cleanup-media [-dry-run]
`

var errUsage = errors.New("invalid usage")

// UserCreator stores a new back-office user.
type UserCreator interface {
	Create(ctx context.Context, email, password string, cost int) (uint64, error)
}

// Sweeper removes images no record references.
type Sweeper interface {
	Run(ctx context.Context, dryRun bool) (media.SweepResult, error)
}

func main() {
	if err := config.DotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(os.Stderr, cfg.LogLevel, "console")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	err = run(ctx, os.Args[1:], os.Stdout, cfg, deps(db, cfg, log))
	if errors.Is(err, errUsage) {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

type commandDeps struct {
	users   UserCreator
	sweeper Sweeper
}

func deps(db *sql.DB, cfg config.Config, log zerolog.Logger) commandDeps {
	store := media.NewLocalStore(cfg.MediaRoot, log)
	return commandDeps{
		users:   repository.NewAdminUserRepo(db),
		sweeper: media.NewSweeper(store, repository.NewMediaUsage(db), cfg.MediaSweepMinAge, log),
	}
}

func run(ctx context.Context, args []string, out io.Writer, cfg config.Config, d commandDeps) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "create-user":
		return createUser(ctx, args[1:], out, cfg.BcryptCost, d.users)
	case "cleanup-media":
		return cleanupMedia(ctx, args[1:], out, d.sweeper)
	}
	return errUsage
}

func createUser(ctx context.Context, args []string, out io.Writer, cost int, users UserCreator) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "login email")
	password := fs.String("password", "", "initial password")
	if err := fs.Parse(args); err != nil || *email == "" || *password == "" {
		return errUsage
	}
	id, err := users.Create(ctx, *email, *password, cost)
	if errors.Is(err, repository.ErrEmailExists) {
		return fmt.Errorf("user %s already exists", *email)
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(out, "created admin user %d (%s)\n", id, repository.NormalizeEmail(*email))
	return nil
}

func cleanupMedia(ctx context.Context, args []string, out io.Writer, sw Sweeper) error {
	fs := flag.NewFlagSet("cleanup-media", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dryRun := fs.Bool("dry-run", false, "list unused images without deleting them")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	res, err := sw.Run(ctx, *dryRun)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "images: %d, referenced: %d, unused: %d, too recent: %d\n", res.Images, res.Used, len(res.Unused), res.Recent)
	for _, p := range res.Unused {
		fmt.Fprintf(out, "  %s\n", p)
	}
	if res.DryRun {
		fmt.Fprintln(out, "dry run, nothing removed")
		return nil
	}
	fmt.Fprintf(out, "removed: %d, failed: %d\n", res.Removed, res.Failed)
	return nil
}
