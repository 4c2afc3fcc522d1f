package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/ChandrashakerVarma/LMS-sub000/cmd/lmsctl/cli"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/app"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/auth"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/bootstrap"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/cache"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/db"
	"github.com/ChandrashakerVarma/LMS-sub000/jobs"
)

const usage = `usage: lmsctl <command> [flags]

commands:
  token     -user ID [-json]        issue a bearer token
  bootstrap [-strict] [-json]       apply the canonical catalog
  verify    [-json]                 report catalog drift (exit 2 on drift)
  jobs      trigger drift_check|reseed
  jobs      stats
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(cli.ExitError)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1], os.Args[2:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, command string, args []string, stdout, stderr io.Writer) int {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return cli.ExitError
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	jsonOut := fs.Bool("json", false, "print JSON")
	opts := func() cli.BootstrapOptions {
		return cli.BootstrapOptions{JSONOutput: *jsonOut, Stdout: stdout, Stderr: stderr}
	}

	switch command {
	case "token":
		userID := fs.Int64("user", 0, "user id")
		if err := fs.Parse(args); err != nil {
			return cli.ExitError
		}
		tokens, err := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenAlgorithm, cfg.TokenTTL)
		if err != nil {
			fmt.Fprintf(stderr, "token: %v\n", err)
			return cli.ExitError
		}
		return cli.TokenCommand(tokens, cli.TokenOptions{UserID: *userID, BootstrapOptions: opts()})

	case "bootstrap", "verify":
		strict := fs.Bool("strict", false, "refuse to seed over a drifted catalog")
		if err := fs.Parse(args); err != nil {
			return cli.ExitError
		}
		mode := bootstrap.ModeIdempotent
		if *strict {
			mode = bootstrap.ModeStrictDrift
		}
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", command, err)
			return cli.ExitError
		}
		defer pool.Close()

		var inv bootstrap.Invalidator
		redisClient, err := cache.Optional(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable; running instances keep cached state until TTL", slog.Any("error", err))
		} else if redisClient != nil {
			defer redisClient.Close()
			local := authz.NewAuthzCache(cfg.CacheConfig(), logger)
			local.SetBroadcaster(authz.NewRedisBus(redisClient, authz.DefaultChannel, logger))
			inv = local
		}

		bc, err := cli.NewBootstrapCLI(bootstrap.NewSeeder(bootstrap.NewPgStore(pool), inv, mode, logger))
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", command, err)
			return cli.ExitError
		}
		if command == "verify" {
			return bc.VerifyCommand(ctx, opts())
		}
		return bc.SeedCommand(ctx, opts())

	case "jobs":
		if err := fs.Parse(args); err != nil {
			return cli.ExitError
		}
		if cfg.RedisAddr == "" {
			fmt.Fprintln(stderr, "jobs: REDIS_ADDR is not set")
			return cli.ExitError
		}
		client := jobs.NewClient(cache.AsynqOpt(cfg.RedisAddr))
		defer client.Close()
		inspector := asynq.NewInspector(cache.AsynqOpt(cfg.RedisAddr))
		defer inspector.Close()
		jc := cli.NewJobsCLI(client, inspector)

		rest := fs.Args()
		switch {
		case len(rest) == 2 && rest[0] == "trigger":
			info, err := jc.Trigger(ctx, rest[1], os.Getenv("USER"))
			if err != nil {
				fmt.Fprintf(stderr, "jobs: %v\n", err)
				return cli.ExitError
			}
			fmt.Fprintf(stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return cli.ExitOK
		case len(rest) == 1 && rest[0] == "stats":
			stats, err := jc.InspectQueue()
			if err != nil {
				fmt.Fprintf(stderr, "jobs: %v\n", err)
				return cli.ExitError
			}
			fmt.Fprintf(stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
			return cli.ExitOK
		}
	}

	fmt.Fprint(stderr, usage)
	return cli.ExitError
}
