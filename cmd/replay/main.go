// Command replay loads a JSON operation stream, applies it to the trading
// core in canonical order and prints the resulting state. Given the same
// input file every run produces identical output.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/FutureShockco/meeray-sub006/internal/amm"
	"github.com/FutureShockco/meeray-sub006/internal/amount"
	"github.com/FutureShockco/meeray-sub006/internal/domain"
	"github.com/FutureShockco/meeray-sub006/internal/engine"
	"github.com/FutureShockco/meeray-sub006/internal/events"
	"github.com/FutureShockco/meeray-sub006/internal/ledger"
	"github.com/FutureShockco/meeray-sub006/internal/observability"
	"github.com/FutureShockco/meeray-sub006/internal/replay"
	"github.com/FutureShockco/meeray-sub006/internal/router"
	"github.com/FutureShockco/meeray-sub006/internal/storage"
	chstore "github.com/FutureShockco/meeray-sub006/internal/storage/clickhouse"
	"github.com/FutureShockco/meeray-sub006/internal/storage/memory"
	"github.com/FutureShockco/meeray-sub006/internal/storage/migrations"
	pgstore "github.com/FutureShockco/meeray-sub006/internal/storage/postgres"
)

// Input is the replay input file: token registrations, genesis balances and
// the operation stream.
type Input struct {
	Tokens     []TokenSeed                 `json:"tokens"`
	Balances   map[string]map[string]int64 `json:"balances"`
	Operations []*replay.Operation         `json:"operations"`
}

// TokenSeed declares one token and its decimal precision.
type TokenSeed struct {
	Symbol    string `json:"symbol"`
	Issuer    string `json:"issuer"`
	Precision uint8  `json:"precision"`
}

// Output is the machine-readable replay result.
type Output struct {
	Results  []*replay.OpResult      `json:"results"`
	Accounts []*domain.Account       `json:"accounts"`
	Pools    []*domain.LiquidityPool `json:"pools"`
}

type stores struct {
	tokens    storage.TokenStore
	pairs     storage.PairStore
	orders    storage.OrderStore
	trades    storage.TradeStore
	pools     storage.PoolStore
	positions storage.PositionStore
	accounts  storage.AccountStore
}

func main() {
	opsFile := flag.String("ops", "", "Path to JSON operations file (required)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse DSN for the trade archive (optional)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage even when a postgres DSN is set")
	outputJSON := flag.Bool("json", false, "Output full state as JSON")
	metricsAddr := flag.String("metrics-addr", "", "Listen address for Prometheus metrics (optional)")

	flag.Parse()

	logger := newLogger()

	if *opsFile == "" {
		logger.Fatal().Msg("--ops is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	input, err := loadInput(*opsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("load operations file")
	}

	st, closeStores, err := openStores(ctx, *postgresDSN, *useMemory, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open storage")
	}
	defer closeStores()

	if err := seed(ctx, st, input); err != nil {
		logger.Fatal().Err(err).Msg("seed genesis state")
	}

	reg, err := buildRegistry(ctx, st.tokens)
	if err != nil {
		logger.Fatal().Err(err).Msg("build token registry")
	}

	sink := events.NewStderrSink()
	led := ledger.New(st.accounts, logger)
	eng := engine.New(reg, st.pairs, st.orders, st.trades, led, sink, logger)
	pools := amm.New(st.pools, st.positions, led, sink, logger)
	rtr := router.New(reg, pools, eng, sink, logger)
	runner := replay.NewRunner(st.pairs, eng, pools, rtr, logger)

	results, err := runner.Run(ctx, input.Operations)
	if err != nil {
		logger.Fatal().Err(err).Int("applied", len(results)).Msg("replay halted")
	}

	if *clickhouseDSN != "" {
		archiveTrades(ctx, *clickhouseDSN, st.trades, input.Operations, logger)
	}

	if err := report(ctx, st, results, *outputJSON); err != nil {
		logger.Fatal().Err(err).Msg("report results")
	}
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("component", "replay").Logger()
}

func loadInput(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var input Input
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &input, nil
}

// openStores wires either the in-memory or postgres backends.
func openStores(ctx context.Context, dsn string, useMemory bool, logger zerolog.Logger) (*stores, func(), error) {
	if useMemory || dsn == "" {
		logger.Info().Msg("using in-memory storage")
		return &stores{
			tokens:    memory.NewTokenStore(),
			pairs:     memory.NewPairStore(),
			orders:    memory.NewOrderStore(),
			trades:    memory.NewTradeStore(),
			pools:     memory.NewPoolStore(),
			positions: memory.NewPositionStore(),
			accounts:  memory.NewAccountStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.Connect(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}

	logger.Info().Msg("using postgres storage")
	return &stores{
		tokens:    pgstore.NewTokenStore(pool),
		pairs:     pgstore.NewPairStore(pool),
		orders:    pgstore.NewOrderStore(pool),
		trades:    pgstore.NewTradeStore(pool),
		pools:     pgstore.NewPoolStore(pool),
		positions: pgstore.NewPositionStore(pool),
		accounts:  pgstore.NewAccountStore(pool),
	}, pool.Close, nil
}

// seed registers tokens and genesis balances. Re-registering an existing
// token is not an error so replays can resume on a warm database.
func seed(ctx context.Context, st *stores, input *Input) error {
	for _, t := range input.Tokens {
		err := st.tokens.Insert(ctx, &domain.Token{
			Symbol:    t.Symbol,
			Issuer:    t.Issuer,
			Precision: t.Precision,
		})
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("register token %s: %w", t.Symbol, err)
		}
	}

	for name, balances := range input.Balances {
		account := &domain.Account{Name: name, Balances: balances}
		if account.Balances == nil {
			account.Balances = map[string]int64{}
		}
		if err := st.accounts.Upsert(ctx, account); err != nil {
			return fmt.Errorf("seed account %s: %w", name, err)
		}
	}
	return nil
}

func buildRegistry(ctx context.Context, tokenStore storage.TokenStore) (amount.Registry, error) {
	list, err := tokenStore.GetAll(ctx)
	if err != nil {
		return amount.Registry{}, err
	}
	tokens := make([]domain.Token, 0, len(list))
	for _, t := range list {
		tokens = append(tokens, *t)
	}
	return amount.NewRegistry(tokens), nil
}

// archiveTrades streams executed trades into ClickHouse. Archive failures
// are logged and never fail the replay.
func archiveTrades(ctx context.Context, dsn string, trades storage.TradeStore, ops []*replay.Operation, logger zerolog.Logger) {
	conn, err := chstore.Bootstrap(ctx, dsn)
	if err != nil {
		logger.Error().Err(err).Msg("connect trade archive")
		return
	}
	defer conn.Close()

	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		logger.Error().Err(err).Msg("migrate trade archive")
		return
	}

	archive := chstore.NewTradeArchiveStore(conn)
	for _, pairID := range pairIDs(ops) {
		list, err := trades.GetByPair(ctx, pairID)
		if err != nil {
			logger.Error().Err(err).Str("pair", pairID).Msg("load trades for archive")
			continue
		}
		if err := archive.InsertTrades(ctx, list); err != nil {
			logger.Error().Err(err).Str("pair", pairID).Msg("archive trades")
			continue
		}
		logger.Info().Str("pair", pairID).Int("trades", len(list)).Msg("archived")
	}
}

// pairIDs collects the pairs the stream creates, in first-seen order.
func pairIDs(ops []*replay.Operation) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, op := range ops {
		if op.Type != replay.OpTypePoolCreate || op.PoolCreate == nil {
			continue
		}
		id := domain.PairID(op.PoolCreate.TokenA, op.PoolCreate.TokenB)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func report(ctx context.Context, st *stores, results []*replay.OpResult, asJSON bool) error {
	accounts, err := st.accounts.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	pools, err := st.pools.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load pools: %w", err)
	}

	if asJSON {
		out, err := json.MarshalIndent(Output{Results: results, Accounts: accounts, Pools: pools}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	accepted := 0
	for _, r := range results {
		if r.Accepted {
			accepted++
		}
	}

	fmt.Printf("\n=== Replay Summary ===\n")
	fmt.Printf("Operations:  %d (%d accepted, %d rejected)\n", len(results), accepted, len(results)-accepted)
	fmt.Printf("Accounts:    %d\n", len(accounts))
	fmt.Printf("Pools:       %d\n", len(pools))
	for _, a := range accounts {
		fmt.Printf("  %-16s %v\n", a.Name, a.Balances)
	}
	for _, p := range pools {
		fmt.Printf("  %-16s reserves %d/%d lp %d\n", p.ID, p.ReserveA, p.ReserveB, p.TotalLPTokens)
	}
	return nil
}
