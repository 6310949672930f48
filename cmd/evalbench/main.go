// Command evalbench drives a synthetic self-play workload against an
// Evaluator, the way a real actor binary would, without needing an actual
// MCTS tree search or a trained model checkpoint. It exists to exercise and
// observe the dispatcher in isolation: actor goroutines hammer
// Inference/Evaluate/Prior concurrently against a fixture game, an optional
// debug HTTP surface exposes /status and /metrics, and a run id ties one
// invocation's logs together.
package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Skizdukion/my-open-spiel/evaluator"
	"github.com/Skizdukion/my-open-spiel/internal/config"
	"github.com/Skizdukion/my-open-spiel/internal/httpdebug"
	"github.com/Skizdukion/my-open-spiel/internal/onnxmodel"
	"github.com/Skizdukion/my-open-spiel/internal/testgame"
)

// benchConfig holds evalbench's own flags. When --config is set, the loaded
// config.File's dispatcher knobs replace the --batch-size/--threads/--cache/
// --shards values, and its listen_addr/otel_endpoint are used only where the
// matching flag is empty.
type benchConfig struct {
	configPath   string
	batchSize    int
	threads      int
	cache        int
	shards       int
	actors       int
	duration     time.Duration
	latency      time.Duration
	boardSize    int
	connectK     int
	chance       bool
	listenAddr   string
	logLevel     string
	onnxModel    string
	onnxLib      string
	otelEndpoint string
	corsEnabled  bool
	corsOrigins  []string
}

func main() {
	cfg := &benchConfig{}
	root := buildRootCmd(cfg)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRootCmd(cfg *benchConfig) *cobra.Command {
	root := &cobra.Command{
		Use:           "evalbench",
		Short:         "Synthetic self-play load generator for the batched inference dispatcher",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&cfg.configPath, "config", "", "optional config file (.yaml/.json/.toml) for the dispatcher knobs")
	root.PersistentFlags().StringVar(&cfg.logLevel, "log-level", "info", "zerolog level: debug|info|warn|error")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run actors against the dispatcher for a fixed duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cfg)
		},
	}
	runCmd.Flags().IntVar(&cfg.batchSize, "batch-size", 8, "inference_batch_size; <=1 selects inline mode")
	runCmd.Flags().IntVar(&cfg.threads, "threads", 2, "inference_threads (runner goroutines)")
	runCmd.Flags().IntVar(&cfg.cache, "cache", 4096, "inference_cache total capacity; 0 disables the cache")
	runCmd.Flags().IntVar(&cfg.shards, "shards", 4, "cache_shards")
	runCmd.Flags().IntVar(&cfg.actors, "actors", 16, "number of concurrent actor goroutines")
	runCmd.Flags().DurationVar(&cfg.duration, "duration", 10*time.Second, "how long to run before stopping")
	runCmd.Flags().DurationVar(&cfg.latency, "model-latency", 2*time.Millisecond, "simulated per-batch model latency")
	runCmd.Flags().IntVar(&cfg.boardSize, "board-size", 9, "fixture board edge length")
	runCmd.Flags().IntVar(&cfg.connectK, "connect-k", 5, "fixture connect-K win length")
	runCmd.Flags().BoolVar(&cfg.chance, "chance", false, "use the chance-node fixture game instead of plain Connect")
	runCmd.Flags().StringVar(&cfg.listenAddr, "listen-addr", "", "optional debug HTTP listen address, e.g. :8090; empty disables it")
	runCmd.Flags().StringVar(&cfg.onnxModel, "onnx-model", "", "path to an ONNX model file; when set, drives the dispatcher with a real onnxmodel.Model instead of the in-memory fixture")
	runCmd.Flags().StringVar(&cfg.onnxLib, "onnx-lib", "", "path to the ONNX Runtime shared library, passed through to onnxmodel.New")
	runCmd.Flags().StringVar(&cfg.otelEndpoint, "otel-endpoint", "", "optional OTEL resource endpoint attribute; empty disables tracing entirely")
	runCmd.Flags().BoolVar(&cfg.corsEnabled, "cors", false, "enable CORS on the debug HTTP surface (requires --listen-addr)")
	runCmd.Flags().StringSliceVar(&cfg.corsOrigins, "cors-origins", []string{"*"}, "allowed CORS origins when --cors is set")

	root.AddCommand(runCmd)
	return root
}

func runBench(cfg *benchConfig) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(parseLevel(cfg.logLevel)).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()

	ecfg := evaluator.Config{
		BatchSize:        cfg.batchSize,
		InferenceThreads: cfg.threads,
		CacheCapacity:    cfg.cache,
		CacheShards:      cfg.shards,
	}
	if cfg.configPath != "" {
		f, err := config.Load(cfg.configPath)
		if err != nil {
			return err
		}
		ecfg = evaluator.ConfigFromFile(f)
		if cfg.listenAddr == "" {
			cfg.listenAddr = f.ListenAddr
		}
		if cfg.otelEndpoint == "" {
			cfg.otelEndpoint = f.OTELEndpoint
		}
	}

	var tracingShutdown func(context.Context) error
	if cfg.otelEndpoint != "" {
		shutdown, err := evaluator.InitTracing("evalbench", cfg.otelEndpoint)
		if err != nil {
			return err
		}
		tracingShutdown = shutdown
	}

	dm := evaluator.NewDeviceManager()
	var onnxModelHandle *onnxmodel.Model
	if cfg.onnxModel != "" {
		shapeBatch := ecfg.BatchSize
		if shapeBatch < 1 {
			shapeBatch = 1
		}
		cells := cfg.boardSize * cfg.boardSize
		m, err := onnxmodel.New(cfg.onnxModel, cfg.onnxLib, onnxmodel.Shape{
			BatchSize:       shapeBatch,
			ObservationSize: 2 * cells,
			PolicySize:      cells,
		})
		if err != nil {
			return err
		}
		onnxModelHandle = m
		dm.AddDevice(m)
	} else {
		dm.AddDevice(&testgame.FixtureModel{Latency: cfg.latency})
	}

	stop := evaluator.NewStopToken()
	eval := evaluator.New(ecfg, dm, stop, logger)

	var srv *http.Server
	if cfg.listenAddr != "" {
		mux := httpdebug.NewMux(eval, httpdebug.CORSOptions{
			Enabled:        cfg.corsEnabled,
			AllowedOrigins: cfg.corsOrigins,
			AllowedMethods: []string{http.MethodGet},
		})
		srv = &http.Server{Addr: cfg.listenAddr, Handler: mux}
		go func() {
			logger.Info().Str("addr", cfg.listenAddr).Msg("evalbench debug server listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("debug server error")
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.duration)
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(cfg.actors)
	for i := 0; i < cfg.actors; i++ {
		go runActor(ctx, &wg, stop, eval, cfg, i)
	}

	select {
	case <-ctx.Done():
	case <-sig:
		cancel()
	}
	wg.Wait()

	stop.Stop()
	eval.Stop()

	if onnxModelHandle != nil {
		onnxModelHandle.Close()
	}

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}

	if tracingShutdown != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = tracingShutdown(shutdownCtx)
	}

	stats := eval.BatchSizeStats()
	info := eval.CacheInfo()
	logger.Info().
		Uint64("batches", stats.Count).
		Float64("mean_batch_size", stats.Mean).
		Float64("batch_size_variance", stats.Variance).
		Int("cache_size", info.Size).
		Uint64("cache_hits", info.Hits).
		Uint64("cache_misses", info.Misses).
		Msg("evalbench run complete")
	return nil
}

// runActor repeatedly plays random self-play games against eval until ctx
// is done or the shared stop token latches, the way a real MCTS actor loop
// checks the stop token between moves rather than mid-search.
func runActor(ctx context.Context, wg *sync.WaitGroup, stop *evaluator.StopToken, eval *evaluator.Evaluator, cfg *benchConfig, id int) {
	defer wg.Done()
	rng := rand.New(rand.NewSource(int64(id) + 1))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if stop.Stopped() {
			return
		}
		playOneGame(ctx, stop, eval, cfg, rng)
	}
}

func playOneGame(ctx context.Context, stop *evaluator.StopToken, eval *evaluator.Evaluator, cfg *benchConfig, rng *rand.Rand) {
	if cfg.chance {
		playDiceConnect(ctx, stop, eval, cfg, rng)
		return
	}
	playConnect(ctx, stop, eval, cfg, rng)
}

func playConnect(ctx context.Context, stop *evaluator.StopToken, eval *evaluator.Evaluator, cfg *benchConfig, rng *rand.Rand) {
	state := testgame.NewConnect(cfg.boardSize, cfg.connectK)
	for !state.Terminal() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if stop.Stopped() {
			return
		}
		if _, err := eval.Evaluate(state); err != nil {
			return
		}
		actions := state.LegalActions()
		if len(actions) == 0 {
			return
		}
		state = state.Apply(actions[rng.Intn(len(actions))])
	}
}

func playDiceConnect(ctx context.Context, stop *evaluator.StopToken, eval *evaluator.Evaluator, cfg *benchConfig, rng *rand.Rand) {
	state := testgame.NewDiceConnect(cfg.boardSize, cfg.connectK)
	for !state.Terminal() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if stop.Stopped() {
			return
		}
		if state.IsChanceNode() {
			outcomes := state.ChanceOutcomes()
			if _, err := eval.Prior(state); err != nil {
				return
			}
			picked := pickOutcome(outcomes, rng)
			state = state.ResolveChance(picked)
			continue
		}
		if _, err := eval.Evaluate(state); err != nil {
			return
		}
		actions := state.LegalActions()
		if len(actions) == 0 {
			return
		}
		state = state.Apply(actions[rng.Intn(len(actions))])
	}
}

func pickOutcome(policy evaluator.Policy, rng *rand.Rand) int64 {
	r := rng.Float64()
	var cumulative float64
	var last int64
	for action, p := range policy {
		cumulative += p
		last = action
		if r <= cumulative {
			return action
		}
	}
	return last
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
