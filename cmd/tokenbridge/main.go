package main

// @title           Token Bridge API
// @version         1.0
// @description     Bridges a GitHub OAuth login to a chat identity. The login callback parks the
// @description     token bundle under a single-use handle, the bot links the handle to its user,
// @description     and trusted backends read the stored bundle back with a shared secret.

// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey LookupSecret
// @in header
// @name X-Bridge-Secret

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/tokenbridge/internal/adapters/driven/github"
	"github.com/custodia-labs/tokenbridge/internal/adapters/driven/memory"
	"github.com/custodia-labs/tokenbridge/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/tokenbridge/internal/adapters/driven/redis"
	"github.com/custodia-labs/tokenbridge/internal/adapters/driving/http"
	"github.com/custodia-labs/tokenbridge/internal/config"
	"github.com/custodia-labs/tokenbridge/internal/core/ports/driven"
	"github.com/custodia-labs/tokenbridge/internal/core/services"
	"github.com/custodia-labs/tokenbridge/internal/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokenbridge: invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokenbridge: %v\n", err)
		os.Exit(2)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("tokenbridge exited")
		logCloser.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	logger.WithField("version", version).Info("tokenbridge starting")

	// Durable store, connected once and shared by every request
	records, closeStore, err := openRecordStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore.Close()

	// Ephemeral handle store and its expiry sweeper
	handles := memory.NewHandleStore()
	sweeper, err := services.NewHandleSweeper(services.HandleSweeperConfig{
		Store:    handles,
		Interval: cfg.HandleSweepInterval,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	exchanger := github.NewExchanger(github.Config{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.GitHubAuthorizeURL,
			TokenURL: cfg.GitHubTokenURL,
		},
		Scopes:  cfg.Scopes(),
		Timeout: cfg.UpstreamTimeout,
	}, logger)

	bridge := services.NewBridgeService(services.BridgeServiceConfig{
		Exchanger: exchanger,
		Handles:   handles,
		Records:   records,
		Secret:    services.NewSecretVerifier(cfg.LookupSecret),
		HandleTTL: cfg.HandleTTL,
		Logger:    logger,
	})

	server := http.NewServer(http.Config{
		Addr:         cfg.BindAddr,
		Version:      version,
		SecretHeader: cfg.LookupSecretHeader,
		BotName:      cfg.TelegramBotName,
		Logger:       logger,
	}, bridge, records)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := sweeper.Start(); err != nil {
			return err
		}
		<-gctx.Done()
		return sweeper.Stop()
	})

	g.Go(func() error {
		return server.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("tokenbridge stopped")
	return nil
}

// openRecordStore connects the durable store named by STORE_URL.
func openRecordStore(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (driven.RecordStore, io.Closer, error) {
	kind, err := cfg.StoreKind()
	if err != nil {
		return nil, nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch kind {
	case config.StorePostgres:
		db, err := postgres.Connect(connectCtx, postgres.DefaultConfig(cfg.StoreURL))
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to PostgreSQL durable store")
		return postgres.NewRecordStore(db, cfg.StoreKeyPrefix), db, nil

	default:
		client, err := redisadapter.Connect(connectCtx, cfg.StoreURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to Redis durable store")
		return redisadapter.NewRecordStoreWithPrefix(client, cfg.StoreKeyPrefix), client, nil
	}
}
