package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/scriptorium/internal/config"
	"github.com/Skotchmaster/scriptorium/internal/db"
	"github.com/Skotchmaster/scriptorium/internal/guard"
	"github.com/Skotchmaster/scriptorium/internal/httpserver"
	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/metrics"
	"github.com/Skotchmaster/scriptorium/internal/middleware/auth"
	"github.com/Skotchmaster/scriptorium/internal/mykafka"
	"github.com/Skotchmaster/scriptorium/internal/repo"
	"github.com/Skotchmaster/scriptorium/internal/search"
	"github.com/Skotchmaster/scriptorium/internal/service"
	"github.com/Skotchmaster/scriptorium/internal/storage"
	"github.com/Skotchmaster/scriptorium/internal/tokens"
	"github.com/Skotchmaster/scriptorium/internal/vision"
	"github.com/Skotchmaster/scriptorium/internal/weather"
)

func main() {
	envFile := flag.String("env", ".env", "path to .env file")
	flag.Parse()

	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFile).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var events mykafka.Publisher = mykafka.Nop{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		prod, err := mykafka.NewProducer(brokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		events = prod
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var index search.Index = search.Nop{}
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		index = &search.Elastic{ES: es}
	} else {
		logger.Warn("search_disabled", "reason", "ES_URL is empty, falling back to database matching")
	}

	var images storage.ImageStore
	if cfg.S3Endpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		images, err = storage.NewMinIO(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
		cancel()
	} else {
		images, err = storage.NewDisk(cfg.ImageDir)
	}
	if err != nil {
		log.Fatalf("image store: %v", err)
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = weather.NewRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn("weather_cache_disabled", "error", err)
			cache = nil
		}
	}

	issuer := tokens.NewIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	m := metrics.New()
	r := &repo.GormRepo{DB: gdb}

	accounts := &service.AccountService{Repo: r, Issuer: issuer, Events: events}
	reports := &service.ReportService{Repo: r, Events: events, Index: index}

	if cfg.BootstrapAdminUsername != "" && cfg.BootstrapAdminPassword != "" {
		bctx := logging.IntoContext(context.Background(), logger)
		if err := accounts.EnsureAdmin(bctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
	}

	e := httpserver.New(logger, &httpserver.Deps{
		Accounts:   &httpserver.AccountHTTP{Svc: accounts},
		Templates:  &httpserver.TemplateHTTP{Svc: &service.TemplateService{Repo: r, Events: events, Index: index}},
		Blogs:      &httpserver.BlogHTTP{Svc: &service.BlogService{Repo: r, Events: events, Index: index}},
		Comments:   &httpserver.CommentHTTP{Svc: &service.CommentService{Repo: r, Events: events}},
		Moderation: &httpserver.ModerationHTTP{Votes: &service.VoteService{Repo: r, Events: events}, Reports: reports},
		Search:     &httpserver.SearchHTTP{Svc: &service.SearchService{Repo: r, Index: index}},
		Describe: &httpserver.DescribeHTTP{Svc: &service.DescribeService{
			Images:   images,
			Vision:   vision.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.OpenAIModel),
			Forecast: weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cache),
		}},
		Auth:    auth.NewGuardMiddleware(guard.New(issuer), m.ObserveGuard),
		Metrics: m,
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := events.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if cache != nil {
		if err := cache.Close(); err != nil {
			logger.Error("redis_close_error", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
