package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bluesky-social/warden/cachestore"
	"github.com/bluesky-social/warden/chatgw"
	"github.com/bluesky-social/warden/countstore"
	"github.com/bluesky-social/warden/dispatch"
	"github.com/bluesky-social/warden/flagstore"
	"github.com/bluesky-social/warden/notify"
	"github.com/bluesky-social/warden/reportstore"
	"github.com/bluesky-social/warden/scoring"
	"github.com/bluesky-social/warden/visual"

	"github.com/carlmjohnson/versioninfo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Server struct {
	logger        *slog.Logger
	gateway       *chatgw.Gateway
	dispatcher    *dispatch.Dispatcher
	metricsListen string
	reapInterval  time.Duration
}

type Config struct {
	Logger               *slog.Logger
	BotName              string
	BotUserID            string
	ModChannelID         string
	DirectoryFileJSON    string
	RedisURL             string
	PerspectiveAPIKey    string
	PerspectiveHost      string
	PerspectiveRateLimit float64
	ScoringTimeout       time.Duration
	HiveAPIToken         string
	SlackWebhookURL      string
	Bind                 string
	MetricsListen        string
	SessionTTL           time.Duration
	ReapInterval         time.Duration
	MessageLogSize       int
	MessageLogTTL        time.Duration
}

func NewServer(db *gorm.DB, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	tenant, err := dispatch.ParseTenant(config.BotName)
	if err != nil {
		return nil, fmt.Errorf("bot name %q: %w", config.BotName, err)
	}
	logger.Info("serving group", "group", tenant.Name(), "mod_channel", tenant.ModChannelName())

	dir := chatgw.NewDirectory()
	if config.DirectoryFileJSON != "" {
		if err := dir.LoadFileJSON(config.DirectoryFileJSON); err != nil {
			return nil, fmt.Errorf("initializing channel directory: %v", err)
		}
		logger.Info("loaded channel directory from JSON", "path", config.DirectoryFileJSON)
	}

	modChannelID := config.ModChannelID
	if modChannelID == "" {
		if _, chid, ok := dir.FindChannelByName(tenant.ModChannelName()); ok {
			modChannelID = chid
		}
	}

	dcfg := dispatch.Config{
		BotUserID:    config.BotUserID,
		Tenant:       tenant,
		ModChannelID: modChannelID,
		SessionTTL:   config.SessionTTL,
	}
	if err := dcfg.Validate(); err != nil {
		return nil, err
	}

	var counters countstore.CountStore
	var cache cachestore.CacheStore
	var flags flagstore.FlagStore
	if config.RedisURL != "" {
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb := redis.NewClient(opt)
		// check redis connection
		_, err = rdb.Ping(context.TODO()).Result()
		rdb.Close()
		if err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}

		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %v", err)
		}
		counters = cnt

		csh, err := cachestore.NewRedisCacheStore(config.RedisURL, 30*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %v", err)
		}
		cache = csh

		flg, err := flagstore.NewRedisFlagStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis flagstore: %v", err)
		}
		flags = flg
	} else {
		counters = countstore.NewMemCountStore()
		cache = cachestore.NewMemCacheStore(5_000, 30*time.Minute)
		flags = flagstore.NewMemFlagStore()
	}

	var gate *scoring.Gate
	if config.PerspectiveAPIKey != "" {
		logger.Info("configuring Perspective text scoring")
		scorer := &scoring.CachingScorer{
			Inner: scoring.NewPerspectiveClient(config.PerspectiveAPIKey, config.PerspectiveHost, config.PerspectiveRateLimit),
			Cache: cache,
		}
		gate = scoring.NewGate(scorer, config.ScoringTimeout, logger)
	} else {
		logger.Warn("no Perspective API key configured, auto-flagging is disabled")
	}

	var classifier visual.Classifier
	if config.HiveAPIToken != "" {
		logger.Info("configuring Hive AI-generated media detection")
		classifier = visual.NewHiveAIClient(config.HiveAPIToken, "")
	}

	var notifier notify.Notifier
	if config.SlackWebhookURL != "" {
		notifier = notify.NewSlackNotifier(config.SlackWebhookURL)
	} else {
		notifier = &notify.LogNotifier{Logger: logger}
	}

	store, err := reportstore.NewGormReportStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing report archive: %w", err)
	}

	gw := chatgw.NewGateway(dir, chatgw.Config{
		Logger:         logger,
		Bind:           config.Bind,
		MessageLogSize: config.MessageLogSize,
		MessageLogTTL:  config.MessageLogTTL,
	})

	d := &dispatch.Dispatcher{
		Logger:     logger.With("component", "dispatch"),
		Config:     dcfg,
		Registry:   dispatch.NewRegistry(),
		Gate:       gate,
		Resolver:   gw,
		Sender:     gw,
		Classifier: classifier,
		Store:      store,
		Counters:   counters,
		Flags:      flags,
		Notifier:   notifier,
	}
	gw.Handler = d

	reapInterval := config.ReapInterval
	if reapInterval <= 0 {
		reapInterval = 5 * time.Minute
	}

	s := &Server{
		logger:        logger,
		gateway:       gw,
		dispatcher:    d,
		metricsListen: config.MetricsListen,
		reapInterval:  reapInterval,
	}
	return s, nil
}

// Run serves the gateway, the metrics endpoint, and the session reaper until ctx is cancelled or one of them fails.
func (s *Server) Run(ctx context.Context) error {
	buildInfo.WithLabelValues(versioninfo.Short()).Set(1)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              s.metricsListen,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return s.gateway.Start()
	})
	eg.Go(func() error {
		s.logger.Info("starting metrics endpoint", "listen", s.metricsListen)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start metrics endpoint: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		return s.dispatcher.RunReaper(ctx, s.reapInterval)
	})
	eg.Go(func() error {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				activeSessions.Set(float64(s.dispatcher.Registry.Len()))
			}
		}
	})
	eg.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.gateway.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("gateway shutdown error", "err", err)
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("metrics endpoint shutdown error", "err", err)
		}
		return nil
	})

	err := eg.Wait()
	s.logger.Info("graceful shutdown complete")
	return err
}
