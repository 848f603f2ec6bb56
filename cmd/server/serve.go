package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"defi-hub/internal/advert"
	"defi-hub/internal/api"
	"defi-hub/internal/auth"
	"defi-hub/internal/cache"
	"defi-hub/internal/chain"
	"defi-hub/internal/config"
	"defi-hub/internal/evm"
	"defi-hub/internal/market"
	"defi-hub/internal/moralis"
	"defi-hub/internal/notification"
	"defi-hub/internal/queue"
	"defi-hub/internal/ratelimit"
	"defi-hub/internal/referral"
	"defi-hub/internal/solana"
	"defi-hub/internal/spotlight"
	"defi-hub/internal/staking"
	"defi-hub/internal/storage"
	chstore "defi-hub/internal/storage/clickhouse"
	"defi-hub/internal/storage/memory"
	"defi-hub/internal/storage/migrations"
	pgstore "defi-hub/internal/storage/postgres"
	"defi-hub/internal/tokens"
	"defi-hub/internal/wallet"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

// stores holds one implementation of every store.
type stores struct {
	adverts       storage.AdvertStore
	spotlight     storage.SpotlightStore
	stakingPools  storage.StakingPoolStore
	referrals     storage.ReferralStore
	notifications storage.NotificationStore
	snapshots     storage.PriceSnapshotStore
}

// cleanup runs registered closers in reverse order.
type cleanup []func()

func (c *cleanup) add(f func()) { *c = append(*c, f) }

func (c cleanup) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers cleanup
	defer closers.run()

	st, err := createStores(ctx, cfg.Storage, &closers)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		closers.add(func() { _ = redisClient.Close() })
	}

	var c cache.Cache
	if redisClient != nil {
		c = cache.NewRedisCache(redisClient, cfg.Redis.KeyPrefix)
	} else {
		c = cache.NewMemoryCache(cfg.Cache.SweepInterval)
	}
	closers.add(func() { _ = c.Close() })

	limiter := newLimiter(cfg, redisClient)
	if limiter != nil {
		closers.add(func() { _ = limiter.Close() })
	}

	publisher, err := newPublisher(cfg.Queue)
	if err != nil {
		return err
	}
	closers.add(func() { _ = publisher.Close() })

	base, err := chain.DefaultRegistry()
	if err != nil {
		return err
	}
	registry, err := base.WithRPCOverrides(cfg.Chains)
	if err != nil {
		return err
	}

	issuer, err := auth.NewIssuer(cfg.Auth)
	if err != nil {
		return err
	}

	resolver := newResolver(ctx, cfg, c, st.snapshots)

	tokenList, err := tokens.LoadDefault()
	if err != nil {
		return err
	}

	evmClients := evm.NewClients(cfg.Providers.Timeout)
	closers.add(evmClients.Close)

	solanaChain, err := registry.Get("solana")
	if err != nil {
		return err
	}
	solanaRPC := solana.NewHTTPClient(solanaChain.RPCURL, solana.WithTimeout(cfg.Providers.Timeout))

	moralisClient := moralis.New(cfg.Providers.Moralis.BaseURL, cfg.Providers.Moralis.APIKey, cfg.Providers.Timeout)
	if !moralisClient.Enabled() {
		log.Info().Msg("Moralis api key not set, EVM balances limited to native coins")
	}

	walletTable, err := wallet.DefaultTable()
	if err != nil {
		return err
	}

	spotlightSvc := spotlight.NewService(st.spotlight, registry)
	notificationSvc := notification.NewService(st.notifications, publisher)

	router := api.NewRouter(api.Services{
		Registry: registry,
		Tokens:   tokens.NewService(tokenList, spotlightSvc),
		Markets:  resolver,
		Wallets:  walletTable,
		Balances: wallet.NewBalanceService(registry,
			wallet.WithEVM(evmClients),
			wallet.WithERC20(moralisClient),
			wallet.WithSolana(solanaRPC),
			wallet.WithKnownTokens(tokenList),
			wallet.WithBalanceCache(c, cfg.Cache.BalancesTTL),
			wallet.WithChainTimeout(cfg.Providers.Timeout),
		),
		Spotlight: spotlightSvc,
		Staking:   staking.NewService(st.stakingPools, registry),
		Referrals: referral.NewService(st.referrals, cfg.Referral,
			referral.WithNotifier(notificationSvc),
			referral.WithPublisher(publisher),
		),
		Notifications:  notificationSvc,
		Adverts:        advert.NewService(st.adverts),
		Auth:           issuer,
		Limiter:        limiter,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Bool("memory", cfg.Storage.UseMemory).Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("Shutdown complete")
	return nil
}

func createStores(ctx context.Context, cfg config.StorageConfig, closers *cleanup) (*stores, error) {
	if cfg.UseMemory {
		log.Info().Msg("Using in-memory storage")
		return &stores{
			adverts:       memory.NewAdvertStore(),
			spotlight:     memory.NewSpotlightStore(),
			stakingPools:  memory.NewStakingPoolStore(),
			referrals:     memory.NewReferralStore(),
			notifications: memory.NewNotificationStore(),
			snapshots:     memory.NewPriceSnapshotStore(),
		}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	closers.add(pool.Close)

	if cfg.RunMigrations {
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		log.Info().Int("applied", applied).Msg("Postgres migrations complete")
	}

	st := &stores{
		adverts:       pgstore.NewAdvertStore(pool),
		spotlight:     pgstore.NewSpotlightStore(pool),
		stakingPools:  pgstore.NewStakingPoolStore(pool),
		referrals:     pgstore.NewReferralStore(pool),
		notifications: pgstore.NewNotificationStore(pool),
	}

	if cfg.ClickhouseDSN == "" {
		log.Info().Msg("ClickHouse not configured, price history kept in memory")
		st.snapshots = memory.NewPriceSnapshotStore()
		return st, nil
	}

	var conn *chstore.Conn
	if cfg.RunMigrations {
		conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	} else {
		conn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
	}
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w", err)
	}
	closers.add(func() { _ = conn.Close() })
	st.snapshots = chstore.NewPriceSnapshotStore(conn)
	return st, nil
}

func newLimiter(cfg *config.Config, client *redis.Client) ratelimit.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return nil
	}
	if rl.Backend == config.BackendRedis {
		return ratelimit.NewRedisLimiter(client, cfg.Redis.KeyPrefix, rl.MaxRequests, rl.Window)
	}
	return ratelimit.NewMemoryLimiter(rl.MaxRequests, rl.Window, rl.CleanupInterval)
}

func newPublisher(cfg config.QueueConfig) (queue.Publisher, error) {
	if !cfg.Enabled {
		return queue.NoOpPublisher{}, nil
	}
	p, err := queue.NewAMQPPublisher(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, fmt.Errorf("queue publisher: %w", err)
	}
	return p, nil
}

// newResolver wires the provider cascade. The Binance ticker stream runs
// until ctx is cancelled.
func newResolver(ctx context.Context, cfg *config.Config, c cache.Cache, snapshots storage.PriceSnapshotStore) *market.Resolver {
	p := cfg.Providers

	var stream *market.TickerStream
	if len(p.Binance.StreamSymbols) > 0 {
		stream = market.NewTickerStream(p.Binance.WsURL, p.Binance.StreamSymbols)
		go stream.Run(ctx)
	}

	return market.NewResolver(
		market.NewDYDX(p.DYDX.IndexerURL, p.Timeout),
		market.NewBinance(p.Binance.RestURL, p.Timeout, stream),
		market.NewDexScreener(p.DexScreener.BaseURL, p.Timeout),
		market.WithCache(c, cfg.Cache.MarketTTL),
		market.WithSnapshots(snapshots),
		market.WithDeviationWarnPct(p.DeviationWarnPct),
	)
}
