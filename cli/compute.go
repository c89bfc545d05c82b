package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/absmach/shapley"
	"github.com/absmach/shapley/pkg/attribution"
	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/storage"
	"github.com/absmach/shapley/pkg/utility"
	"github.com/absmach/shapley/pkg/utility/wasm"
	"github.com/absmach/supermq/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	errNoUtility       = errors.New("one of --table or --wasm is required")
	errTwoUtilities    = errors.New("--table and --wasm are mutually exclusive")
	errNoParticipants  = errors.New("--n is required with a wasm utility")
	errLoadingConfig   = errors.New("failed to load configuration")
	errLoadingUtility  = errors.New("failed to load utility")
	errInvalidActive   = errors.New("invalid active set")
	errOpeningStore    = errors.New("failed to open record store")
	errAttributing     = errors.New("attribution failed")
	errPersistingRound = errors.New("failed to persist records")
)

type computeOptions struct {
	configPath string
	tablePath  string
	wasmPath   string
	function   string
	n          int
	round      uint64
	baseline   float64
	active     string
	storeDir   string
}

func NewComputeCmd() *cobra.Command {
	var opts computeOptions

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute attribution offline",
		Long: `Compute Shapley attribution for one round without an attributor service.

Examples:
  # Exact and approximate values from a utility table
  shapley-cli compute --table utility.json

  # Utility served by a wasm module, 8 participants, 3 inactive
  shapley-cli compute --wasm utility.wasm --n 8 --active 0,1,2,4,6`,
		Run: func(cmd *cobra.Command, _ []string) {
			records, err := compute(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, records)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "TOML configuration file with an [attribution] table")
	cmd.Flags().StringVarP(&opts.tablePath, "table", "t", "", "JSON utility table keyed by member lists")
	cmd.Flags().StringVarP(&opts.wasmPath, "wasm", "w", "", "wasm module exporting the utility function")
	cmd.Flags().StringVar(&opts.function, "function", wasm.DefaultFunction, "exported utility function name")
	cmd.Flags().IntVarP(&opts.n, "n", "n", 0, "number of participants, inferred from the table when omitted")
	cmd.Flags().Uint64VarP(&opts.round, "round", "r", 0, "round index")
	cmd.Flags().Float64Var(&opts.baseline, "baseline", 0, "previous round accuracy used for the empty coalition")
	cmd.Flags().StringVar(&opts.active, "active", "", "comma separated active participants, all by default")
	cmd.Flags().StringVar(&opts.storeDir, "store", "", "directory to persist records as JSON files")

	return cmd
}

func compute(ctx context.Context, opts computeOptions, logOut io.Writer) ([]attribution.Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := shapley.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := shapley.LoadConfig(opts.configPath)
		if err != nil {
			return nil, errors.Wrap(errLoadingConfig, err)
		}
		cfg = *loaded
	}

	eval, n, closeEval, err := loadUtility(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer closeEval()

	active, err := coalition.Full(n)
	if err != nil {
		return nil, errors.Wrap(errInvalidActive, err)
	}
	if opts.active != "" {
		if active, err = coalition.Parse(opts.active); err != nil {
			return nil, errors.Wrap(errInvalidActive, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelWarn}))
	runner, err := attribution.NewRunner(cfg.Attribution, nil, logger)
	if err != nil {
		return nil, errors.Wrap(errLoadingConfig, err)
	}
	rd, err := runner.NewRound(attribution.RoundInput{
		Index:    opts.round,
		N:        n,
		Active:   active,
		Utility:  eval,
		Baseline: opts.baseline,
	})
	if err != nil {
		return nil, errors.Wrap(errAttributing, err)
	}

	results, err := runner.Run(ctx, rd)
	if err != nil {
		return nil, errors.Wrap(errAttributing, err)
	}

	now := time.Now().UTC()
	records := make([]attribution.Record, len(results))
	for i, res := range results {
		records[i] = res.Record(now)
		if res.Err != nil {
			logger.Warn("Attribution method skipped", slog.String("method", string(res.Method)), slog.String("error", res.Err.Error()))
		}
	}

	if opts.storeDir != "" {
		if err := persist(ctx, opts.storeDir, records); err != nil {
			return nil, err
		}
	}

	return records, nil
}

func loadUtility(ctx context.Context, opts computeOptions) (utility.Evaluator, int, func(), error) {
	switch {
	case opts.tablePath != "" && opts.wasmPath != "":
		return nil, 0, nil, errTwoUtilities
	case opts.tablePath != "":
		f, err := os.Open(opts.tablePath)
		if err != nil {
			return nil, 0, nil, errors.Wrap(errLoadingUtility, err)
		}
		defer f.Close()

		table, err := utility.LoadTable(f)
		if err != nil {
			return nil, 0, nil, errors.Wrap(errLoadingUtility, err)
		}
		n := opts.n
		if n == 0 {
			n = participants(table)
		}

		return table, n, func() {}, nil
	case opts.wasmPath != "":
		if opts.n <= 0 {
			return nil, 0, nil, errNoParticipants
		}
		ev, err := wasm.NewFromFile(ctx, opts.wasmPath, opts.function)
		if err != nil {
			return nil, 0, nil, errors.Wrap(errLoadingUtility, err)
		}

		return ev, opts.n, func() { _ = ev.Close(context.Background()) }, nil
	default:
		return nil, 0, nil, errNoUtility
	}
}

// participants is one past the highest member mentioned in t.
func participants(t utility.Table) int {
	var all coalition.Coalition
	for c := range t {
		all = all.Union(c)
	}
	members := all.Members()
	if len(members) == 0 {
		return 0
	}

	return int(members[len(members)-1]) + 1
}

func persist(ctx context.Context, dir string, records []attribution.Record) error {
	repos, err := storage.NewRepositories(storage.Config{Type: "file", FileDir: dir})
	if err != nil {
		return errors.Wrap(errOpeningStore, err)
	}
	for _, rec := range records {
		if err := repos.Records.Save(ctx, rec); err != nil {
			return errors.Wrap(errPersistingRound, err)
		}
	}

	return nil
}
