package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bluesky-social/warden/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"gorm.io/plugin/opentelemetry/tracing"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "warden",
		Usage:   "chat moderation daemon (report intake and review)",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			Value:   "info",
			EnvVars: []string{"WARDEN_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log output format: json or text",
			Value:   "json",
			EnvVars: []string{"WARDEN_LOG_FORMAT", "LOG_FORMAT"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
			Value:   10,
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "bot-name",
			Usage:    `display name of the bot account, in the form "Group <n> Bot"; selects the group channels`,
			Required: true,
			EnvVars:  []string{"WARDEN_BOT_NAME"},
		},
		&cli.StringFlag{
			Name:     "bot-user-id",
			Usage:    "platform user ID of the bot account; its own messages are ignored",
			Required: true,
			EnvVars:  []string{"WARDEN_BOT_USER_ID"},
		},
		&cli.StringFlag{
			Name:    "mod-channel-id",
			Usage:   "channel ID of the moderator channel (default: looked up by name in the directory file)",
			EnvVars: []string{"WARDEN_MOD_CHANNEL_ID"},
		},
		&cli.StringFlag{
			Name:    "directory-file",
			Usage:   "path to JSON file listing communities and channels",
			EnvVars: []string{"WARDEN_DIRECTORY_FILE"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "database for the report archive (sqlite:// or postgres://)",
			Value:   "sqlite://data/warden/reports.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.BoolFlag{
			Name:    "db-tracing",
			Usage:   "emit OpenTelemetry spans for database queries",
			EnvVars: []string{"WARDEN_DB_TRACING"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for counters, flags, and the score cache (in-process stores when not set)",
			EnvVars: []string{"WARDEN_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "perspective-api-key",
			Usage:   "Perspective API key; auto-flagging is disabled when not set",
			EnvVars: []string{"PERSPECTIVE_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "perspective-host",
			Usage:   "method, hostname, and port of the Perspective API",
			Value:   "https://commentanalyzer.googleapis.com",
			EnvVars: []string{"PERSPECTIVE_HOST"},
		},
		&cli.Float64Flag{
			Name:    "perspective-rate-limit",
			Usage:   "max Perspective API requests per second",
			Value:   1,
			EnvVars: []string{"PERSPECTIVE_RATE_LIMIT"},
		},
		&cli.DurationFlag{
			Name:    "scoring-timeout",
			Usage:   "time limit for scoring one message before failing open",
			Value:   5 * time.Second,
			EnvVars: []string{"WARDEN_SCORING_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "hive-api-token",
			Usage:   "API token for the Hive AI-generated media model",
			EnvVars: []string{"HIVEAI_API_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "full URL of slack webhook for moderation notifications",
			EnvVars: []string{"SLACK_WEBHOOK_URL"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for the chat gateway",
			Value:   ":3300",
			EnvVars: []string{"WARDEN_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3301",
			EnvVars: []string{"WARDEN_METRICS_LISTEN"},
		},
		&cli.DurationFlag{
			Name:    "session-ttl",
			Usage:   "report sessions idle for longer than this (before reaching moderators) are dropped",
			Value:   24 * time.Hour,
			EnvVars: []string{"WARDEN_SESSION_TTL"},
		},
		&cli.DurationFlag{
			Name:    "reap-interval",
			Usage:   "how often to check for idle report sessions",
			Value:   5 * time.Minute,
			EnvVars: []string{"WARDEN_REAP_INTERVAL"},
		},
		&cli.IntFlag{
			Name:    "message-log-size",
			Usage:   "number of recent community messages kept for resolving report links",
			Value:   100_000,
			EnvVars: []string{"WARDEN_MESSAGE_LOG_SIZE"},
		},
		&cli.DurationFlag{
			Name:    "message-log-ttl",
			Usage:   "how long community messages are kept for resolving report links",
			Value:   7 * 24 * time.Hour,
			EnvVars: []string{"WARDEN_MESSAGE_LOG_TTL"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := cliutil.ConfigLogger(cctx.String("log-level"), cctx.String("log-format"), os.Stdout)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownOTEL, err := configOTEL(ctx, "warden")
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOTEL(ctx); err != nil {
				slog.Error("failed to shutdown trace exporter", "error", err)
			}
		}()

		db, err := cliutil.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}
		if cctx.Bool("db-tracing") {
			if err := db.Use(tracing.NewPlugin()); err != nil {
				return err
			}
		}

		srv, err := NewServer(
			db,
			Config{
				Logger:               logger,
				BotName:              cctx.String("bot-name"),
				BotUserID:            cctx.String("bot-user-id"),
				ModChannelID:         cctx.String("mod-channel-id"),
				DirectoryFileJSON:    cctx.String("directory-file"),
				RedisURL:             cctx.String("redis-url"),
				PerspectiveAPIKey:    cctx.String("perspective-api-key"),
				PerspectiveHost:      cctx.String("perspective-host"),
				PerspectiveRateLimit: cctx.Float64("perspective-rate-limit"),
				ScoringTimeout:       cctx.Duration("scoring-timeout"),
				HiveAPIToken:         cctx.String("hive-api-token"),
				SlackWebhookURL:      cctx.String("slack-webhook-url"),
				Bind:                 cctx.String("bind"),
				MetricsListen:        cctx.String("metrics-listen"),
				SessionTTL:           cctx.Duration("session-ttl"),
				ReapInterval:         cctx.Duration("reap-interval"),
				MessageLogSize:       cctx.Int("message-log-size"),
				MessageLogTTL:        cctx.Duration("message-log-ttl"),
			},
		)
		if err != nil {
			return err
		}

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run warden service: %w", err)
		}
		return nil
	},
}
