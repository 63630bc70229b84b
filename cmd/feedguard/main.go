// Package main runs the token feed service:
// - Stream: websocket ingestion, metadata enrichment, moderation, bounded feed
// - API: moderation proxy, feed/status/decision endpoints, metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solana-token-feed/internal/api"
	"solana-token-feed/internal/config"
	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/feed"
	"solana-token-feed/internal/messaging"
	"solana-token-feed/internal/metadata"
	"solana-token-feed/internal/moderation"
	"solana-token-feed/internal/solana"
	"solana-token-feed/internal/storage"
	"solana-token-feed/internal/storage/memory"
	"solana-token-feed/internal/storage/migrations"
	chstore "solana-token-feed/internal/storage/clickhouse"
	pgstore "solana-token-feed/internal/storage/postgres"
	"solana-token-feed/internal/stream"
)

func main() {
	// Load .env file if exists
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Parse flags (env vars as defaults)
	streamURL := flag.String("stream-url", cfg.Stream.URL, "Token stream websocket URL (overrides -stream-host)")
	streamHost := flag.String("stream-host", cfg.Stream.Host, "Token stream host; connects to ws(s)://<host>:8080/connect")
	streamSecure := flag.Bool("stream-secure", cfg.Stream.Secure, "Use wss for the token stream")
	rpcEndpoint := flag.String("rpc-endpoint", cfg.Stream.RPCEndpoint, "Solana RPC endpoint for resolving missing metadata uris (empty disables)")
	moderationURL := flag.String("moderation-url", cfg.Moderation.RemoteURL, "Moderation proxy endpoint used by the pipeline")
	blocklistPath := flag.String("blocklist", cfg.Moderation.BlocklistPath, "YAML blocklist overrides")
	redisURL := flag.String("redis-url", cfg.Moderation.RedisURL, "Redis URL for the shared verdict cache")
	postgresDSN := flag.String("postgres-dsn", cfg.Storage.PostgresDSN, "PostgreSQL connection string for the decision log")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.Storage.ClickhouseDSN, "ClickHouse connection string for the decision log")
	useMemory := flag.Bool("use-memory", cfg.Storage.UseMemory, "Keep the decision log in memory")
	natsURL := flag.String("nats-url", cfg.NATS.URL, "NATS URL for feed fan-out (empty disables)")
	httpAddr := flag.String("http-addr", cfg.HTTP.Addr, "HTTP address for the API, health and metrics")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[feedguard] ", log.LstdFlags|log.Lshortfile)
	componentLogger := log.New(os.Stdout, "", log.LstdFlags|log.Lshortfile)

	endpoint := *streamURL
	if endpoint == "" {
		endpoint = stream.EndpointURL(*streamHost, *streamSecure)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checker, closeChecker, err := createChecker(ctx, *blocklistPath, *redisURL, *moderationURL, componentLogger)
	if err != nil {
		logger.Fatalf("Failed to create moderation pipeline: %v", err)
	}
	defer closeChecker()

	decisions, closeStores, err := createDecisionStore(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create decision store: %v", err)
	}
	defer closeStores()
	if decisions == nil {
		logger.Println("Decision log disabled (no DSN and -use-memory not set)")
	}

	var publisher messaging.Publisher
	if *natsURL != "" {
		natsCfg := messaging.DefaultNATSConfig()
		natsCfg.URL = *natsURL
		nc, err := messaging.NewNATSClient(natsCfg)
		if err != nil {
			logger.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer nc.Close()
		publisher = nc
	}

	var resolver stream.URIResolver
	if *rpcEndpoint != "" {
		resolver = solana.NewMetadataResolver(solana.NewHTTPClient(*rpcEndpoint))
		logger.Printf("Resolving missing metadata uris via %s", *rpcEndpoint)
	}

	tokenFeed := feed.New(feed.DefaultCapacity)
	connector := stream.NewConnector(stream.Options{
		URL:       endpoint,
		Fetcher:   metadata.NewFetcher(metadata.WithLogger(componentLogger)),
		Resolver:  resolver,
		Moderator: checker,
		Feed:      tokenFeed,
		Recorder:  decisions,
		Publisher: publisher,
		Logger:    componentLogger,
		OnStateChange: func(s domain.ConnectionState) {
			logger.Printf("Stream %s", s)
		},
	})

	var upstream api.Moderator
	if cfg.Moderation.OpenAIKey != "" {
		upstream = api.NewOpenAIModerator(cfg.Moderation.OpenAIKey, cfg.Moderation.OpenAIBaseURL, cfg.Moderation.OpenAIModel)
	} else {
		logger.Println("OPENAI_API_KEY not set, /api/moderate disabled")
	}

	apiServer := api.NewServer(api.Options{
		Feed:           tokenFeed,
		State:          connector,
		Decisions:      decisions,
		Moderator:      upstream,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		ProxyRPS:       cfg.HTTP.ProxyRPS,
		ProxyBurst:     cfg.HTTP.ProxyBurst,
		Logger:         componentLogger,
	})
	httpServer := &http.Server{
		Addr:              *httpAddr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(cfg.HTTP.ShutdownGrace):
			logger.Printf("Graceful shutdown timed out after %v, forcing exit", cfg.HTTP.ShutdownGrace)
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	go func() {
		logger.Printf("Starting HTTP server on %s", *httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
			cancel()
		}
	}()

	logger.Printf("Connecting to token stream %s", endpoint)
	if err := connector.Start(ctx); err != nil {
		logger.Fatalf("Failed to start stream: %v", err)
	}

	<-ctx.Done()

	connector.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown: %v", err)
	}

	close(done)
	logger.Println("Shutdown complete")
}

// createChecker builds the moderation pipeline: local gate from the
// blocklist, verdict cache, rate limiter and remote classifier.
func createChecker(ctx context.Context, blocklistPath, redisURL, moderationURL string, logger *log.Logger) (*moderation.Checker, func(), error) {
	bl := moderation.DefaultBlocklist()
	if blocklistPath != "" {
		loaded, err := moderation.LoadBlocklist(blocklistPath)
		if err != nil {
			return nil, nil, err
		}
		bl = loaded
	}

	gate, err := moderation.NewLocalGateFromBlocklist(bl)
	if err != nil {
		return nil, nil, fmt.Errorf("build local gate: %w", err)
	}

	var cache moderation.Cache = moderation.NewMemoryCache(moderation.DefaultCacheCapacity, moderation.DefaultCacheTTL)
	cleanup := func() {}
	if redisURL != "" {
		rc, err := moderation.NewRedisCache(ctx, redisURL, moderation.DefaultCacheTTL, logger)
		if err != nil {
			return nil, nil, err
		}
		cache = rc
		cleanup = func() { rc.Close() }
	}

	var classifier moderation.Classifier
	if moderationURL != "" {
		classifier = moderation.NewRemoteClient(moderationURL)
	}

	checker := moderation.NewChecker(moderation.CheckerOptions{
		Gate:       gate,
		Cache:      cache,
		Limiter:    moderation.NewRateLimiter(moderation.DefaultMinInterval),
		Classifier: classifier,
		Logger:     logger,
	})
	return checker, cleanup, nil
}

// createDecisionStore picks the decision log backend. With both DSNs,
// writes go to PostgreSQL and ClickHouse and stage counts come from
// ClickHouse. Returns a nil store when nothing is configured.
func createDecisionStore(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.DecisionStore, func(), error) {
	if useMemory {
		return memory.NewDecisionStore(), func() {}, nil
	}

	var stores []storage.DecisionStore
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// PostgreSQL
	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		stores = append(stores, pgstore.NewDecisionStore(pool))
	}

	// ClickHouse
	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		stores = append(stores, chstore.NewDecisionStore(conn))
	}

	switch len(stores) {
	case 0:
		return nil, cleanup, nil
	case 1:
		return stores[0], cleanup, nil
	default:
		return storage.NewFanoutDecisionStore(stores[0], stores[1:]...), cleanup, nil
	}
}
