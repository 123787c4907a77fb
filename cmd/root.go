package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/spnsim/sim"
	"github.com/inference-sim/spnsim/sim/ensemble"
	"github.com/inference-sim/spnsim/sim/model"
	"github.com/inference-sim/spnsim/sim/trace"
	"github.com/inference-sim/spnsim/sim/tracestore"
)

var (
	// CLI flags for the run command
	modelPath    string  // Model file (YAML)
	seed         int64   // Seed for waiting-time sampling
	horizon      float64 // Simulated time to stop at
	checkpoint   float64 // Interval between printed markings; 0 disables
	replicates   int     // Independent replicates for ensemble statistics
	traceLevel   string  // Firing trace verbosity
	traceMax     int     // Cap on stored trace records
	traceDB      string  // SQLite file for the firing trace
	outputFormat string  // text or json
	logLevel     string  // Log verbosity level
	envFile      string  // Optional .env file with SPNSIM_* defaults
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "spnsim",
	Short: "Discrete-event simulator for stochastic Petri nets and reaction networks",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a model to its horizon",
	Run: func(cmd *cobra.Command, args []string) {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		env, err := LoadEnvDefaults(files...)
		if err != nil {
			logrus.Fatalf("Invalid environment: %v", err)
		}

		// Set up logging
		level := resolveString(cmd.Flags().Changed("log"), logLevel, env.LogLevel, "error")
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", level)
		}
		logrus.SetLevel(lvl)

		if modelPath == "" {
			logrus.Fatalf("Model file not provided. Use --model.")
		}
		opts := runOptions{
			ModelPath:  modelPath,
			SeedSet:    cmd.Flags().Changed("seed"),
			Seed:       seed,
			HorizonSet: cmd.Flags().Changed("horizon"),
			Horizon:    horizon,
			Checkpoint: checkpoint,
			Replicates: replicates,
			TraceLevel: traceLevel,
			TraceMax:   traceMax,
			TraceDB:    resolveString(cmd.Flags().Changed("trace-db"), traceDB, env.TraceDB, ""),
			Output:     outputFormat,
			Env:        env,
		}
		if err := opts.Validate(); err != nil {
			logrus.Fatalf("%v", err)
		}

		startTime := time.Now()
		if err := runModel(cmd.Context(), opts, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// runOptions is the resolved configuration of one run command.
type runOptions struct {
	ModelPath  string
	SeedSet    bool
	Seed       int64
	HorizonSet bool
	Horizon    float64
	Checkpoint float64
	Replicates int
	TraceLevel string
	TraceMax   int
	TraceDB    string
	Output     string
	Env        EnvDefaults
}

// Validate checks flag values that do not depend on the model.
func (o runOptions) Validate() error {
	if o.HorizonSet && (o.Horizon < 0 || math.IsNaN(o.Horizon)) {
		return fmt.Errorf("--horizon must be non-negative, got %v", o.Horizon)
	}
	if o.Checkpoint < 0 || math.IsNaN(o.Checkpoint) || math.IsInf(o.Checkpoint, 0) {
		return fmt.Errorf("--checkpoint must be a finite non-negative interval, got %v", o.Checkpoint)
	}
	if o.Replicates < 1 {
		return fmt.Errorf("--replicates must be at least 1, got %d", o.Replicates)
	}
	if !trace.IsValidTraceLevel(o.TraceLevel) {
		return fmt.Errorf("unknown --trace %q; valid: none, firings", o.TraceLevel)
	}
	if o.TraceMax < 0 {
		return fmt.Errorf("--trace-max must be non-negative, got %d", o.TraceMax)
	}
	if o.Output != "text" && o.Output != "json" {
		return fmt.Errorf("unknown --output %q; valid: text, json", o.Output)
	}
	return nil
}

// runModel loads the model, runs it and writes the report to w.
func runModel(ctx context.Context, opts runOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := model.LoadModel(opts.ModelPath)
	if err != nil {
		return err
	}
	b, err := m.Build()
	if err != nil {
		return fmt.Errorf("model %s: %w", opts.ModelPath, err)
	}

	runSeed := resolveSeed(opts.SeedSet, opts.Seed, opts.Env, b.Seed)
	runHorizon := b.Horizon
	if opts.HorizonSet {
		runHorizon = opts.Horizon
	}
	if runHorizon == 0 {
		runHorizon = math.Inf(1)
	}
	logrus.Infof("Starting model %q: seed=%d, horizon=%g, %d events", b.Name, runSeed, runHorizon, len(b.Events))

	key := sim.NewSimulationKey(runSeed)
	s, err := b.NewSimulation(key)
	if err != nil {
		return err
	}

	var st *trace.SimulationTrace
	level := trace.TraceLevel(opts.TraceLevel)
	if opts.TraceDB != "" {
		level = trace.TraceLevelFirings
	}
	if level != trace.TraceLevelNone {
		st = trace.NewSimulationTrace(trace.TraceConfig{Level: level, MaxRecords: opts.TraceMax})
		s.AddObserver(sim.NewTraceObserver(st, s))
	}

	rep := newReport(b, runSeed, runHorizon)
	if err := runCheckpointed(ctx, s, runHorizon, opts.Checkpoint, func(t float64) {
		rep.Checkpoints = append(rep.Checkpoints, checkpointReport{Time: t, Marking: b.MarkingByName(s.Marking())})
	}); err != nil {
		return err
	}
	rep.finish(b, s)

	if st != nil && trace.TraceLevel(opts.TraceLevel) == trace.TraceLevelFirings {
		rep.Trace = trace.Summarize(st)
	}
	if opts.TraceDB != "" {
		if rep.RunID, err = storeTrace(ctx, opts.TraceDB, b, runSeed, runHorizon, s, st); err != nil {
			return err
		}
	}
	if opts.Replicates > 1 {
		res, err := ensemble.Run(ctx, b.NewSimulation, ensemble.Config{
			Replicates: opts.Replicates,
			Horizon:    runHorizon,
			Key:        key,
		})
		if err != nil {
			return fmt.Errorf("ensemble: %w", err)
		}
		rep.Ensemble = newEnsembleReport(b, res)
	}

	if opts.Output == "json" {
		return rep.writeJSON(w)
	}
	rep.writeText(w, s)
	return nil
}

// runCheckpointed runs to horizon in interval-sized RunUntil calls, calling
// mark after each one. With interval 0 it makes a single call and marks once.
// ctx is checked between intervals.
func runCheckpointed(ctx context.Context, s *sim.Simulation, horizon, interval float64, mark func(t float64)) error {
	if interval <= 0 {
		if err := s.RunUntil(horizon); err != nil {
			return err
		}
		mark(s.Clock())
		return nil
	}
	for t := interval; ; t += interval {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stopped at t=%g: %w", s.Clock(), err)
		}
		if t > horizon {
			t = horizon
		}
		if err := s.RunUntil(t); err != nil {
			return err
		}
		mark(t)
		if t >= horizon {
			return nil
		}
		if _, ok := s.NextFiringTime(); !ok {
			return nil
		}
	}
}

// storeTrace writes the run and its firings to the SQLite trace database.
func storeTrace(ctx context.Context, path string, b *model.Built, runSeed int64, runHorizon float64,
	s *sim.Simulation, st *trace.SimulationTrace) (string, error) {
	store, err := tracestore.Open(path)
	if err != nil {
		return "", fmt.Errorf("trace db: %w", err)
	}
	defer store.Close()

	runID, err := store.BeginRun(ctx, tracestore.RunInfo{
		Model:      b.Name,
		Seed:       runSeed,
		Horizon:    runHorizon,
		EventNames: s.EventNames(),
	})
	if err != nil {
		return "", err
	}
	if err := store.WriteFirings(ctx, runID, st.Firings); err != nil {
		return "", err
	}
	if err := store.FinishRun(ctx, runID, s.Clock()); err != nil {
		return "", err
	}
	logrus.Infof("Stored %d firings in %s as run %s", len(st.Firings), path, runID)
	return runID, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&modelPath, "model", "", "Model file (YAML)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Seed for waiting-time sampling (default: $SPNSIM_SEED, then the model's seed)")
	runCmd.Flags().Float64Var(&horizon, "horizon", 0, "Simulated time to stop at; 0 runs until no event is enabled (default: the model's horizon)")
	runCmd.Flags().Float64Var(&checkpoint, "checkpoint", 0, "Print the marking every this many time units; 0 disables")
	runCmd.Flags().IntVar(&replicates, "replicates", 1, "Independent replicates; >1 adds ensemble statistics")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Firing trace level (none, firings)")
	runCmd.Flags().IntVar(&traceMax, "trace-max", 0, "Maximum stored trace records; 0 is unbounded")
	runCmd.Flags().StringVar(&traceDB, "trace-db", "", "SQLite file to store the firing trace in (default: $SPNSIM_TRACE_DB)")
	runCmd.Flags().StringVar(&outputFormat, "output", "text", "Report format (text, json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load SPNSIM_* defaults from this file instead of .env")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic) (default: $SPNSIM_LOG)")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
