// File: cmd/keyadmin/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"course-progression/internal/config"
	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/infra/api/apiv1"
	pg "course-progression/internal/infra/db/postgres"
	"course-progression/internal/infra/logging"
	"course-progression/internal/usecase"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

const usage = `usage: keyadmin [-config path] [-dev] <command> [flags]

commands:
  issue       -product-kind course|addon -product ID [-quantity N] [-notes TEXT] [-price N]
  deactivate  -code CODE
  stats
  token       (-sub USER_ID | -email EMAIL) [-role user|admin]
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, config.DatabaseConfig{URL: cfg.Database.URL, MaxConns: 4})
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "issue":
		err = runIssue(ctx, pool, cfg, logger, args)
	case "deactivate":
		err = runDeactivate(ctx, pool, cfg, logger, args)
	case "stats":
		err = runStats(ctx, pool, logger)
	case "token":
		err = runToken(ctx, pool, cfg, logger, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		pool.Close()
		os.Exit(1)
	}
}

func keyUseCase(pool *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger) usecase.KeyUseCase {
	return usecase.NewKeyUseCase(
		pg.NewRegistrationKeyRepo(pool),
		pg.NewUserRepo(pool),
		pg.NewEnrollmentRepo(pool),
		pg.NewTxManager(pool),
		logger,
		cfg.Runtime.Dev,
	)
}

func runIssue(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("issue", flag.ExitOnError)
	kind := fs.String("product-kind", string(model.ProductKindCourse), "course or addon")
	product := fs.String("product", "", "product id")
	quantity := fs.Int("quantity", 1, "number of keys (1..1000)")
	notes := fs.String("notes", "", "free-form notes stored with each key")
	price := fs.Int64("price", -1, "price in minor units; negative means unset")
	_ = fs.Parse(args)

	ref := model.ProductRef{Kind: model.ProductKind(*kind), ID: *product}
	var notesPtr *string
	if *notes != "" {
		notesPtr = notes
	}
	var pricePtr *int64
	if *price >= 0 {
		pricePtr = price
	}

	keys, err := keyUseCase(pool, cfg, logger).IssueMany(ctx, ref, *quantity, notesPtr, pricePtr)
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Println(k.Code)
	}
	fmt.Fprintf(os.Stderr, "issued %d key(s) for %s %s\n", len(keys), ref.Kind, ref.ID)
	return nil
}

func runDeactivate(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("deactivate", flag.ExitOnError)
	code := fs.String("code", "", "key code")
	_ = fs.Parse(args)

	if err := keyUseCase(pool, cfg, logger).Deactivate(ctx, *code); err != nil {
		return err
	}
	fmt.Printf("deactivated %s\n", model.NormalizeCode(*code))
	return nil
}

func runStats(ctx context.Context, pool *pgxpool.Pool, logger *zerolog.Logger) error {
	snap, err := usecase.NewStatsUseCase(pg.NewRegistrationKeyRepo(pool), pg.NewEnrollmentRepo(pool), logger).Snapshot(ctx)
	if err != nil {
		return err
	}
	states := make([]string, 0, len(snap.KeysByState))
	for s := range snap.KeysByState {
		states = append(states, string(s))
	}
	sort.Strings(states)
	for _, s := range states {
		fmt.Printf("keys.%-12s %d\n", s, snap.KeysByState[model.KeyState(s)])
	}
	fmt.Printf("enrollments.completed %d\n", snap.CompletedEnrollments)
	return nil
}

func runToken(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	sub := fs.String("sub", "", "user id")
	email := fs.String("email", "", "look up the user by email, creating it if missing")
	role := fs.String("role", apiv1.RoleUser, "user or admin")
	_ = fs.Parse(args)

	users := usecase.NewUserUseCase(pg.NewUserRepo(pool), logger)
	var subject string
	switch {
	case *sub != "":
		u, err := users.GetByID(ctx, *sub)
		if err != nil {
			return fmt.Errorf("user %s: %w", *sub, err)
		}
		subject = u.ID
	case *email != "":
		u, err := users.GetByEmail(ctx, *email)
		if errors.Is(err, domain.ErrNotFound) {
			u, err = users.RegisterOrFetch(ctx, *email)
			if err == nil {
				fmt.Fprintf(os.Stderr, "created user %s for %s\n", u.ID, u.Email)
			}
		}
		if err != nil {
			return err
		}
		subject = u.ID
	default:
		return fmt.Errorf("one of -sub or -email is required")
	}

	tok, err := apiv1.NewAuthManager(cfg.Auth.JWTSecret, false, cfg.Auth.TokenTTL).Mint(subject, *role)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}
