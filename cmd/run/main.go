// Command run drives batches of headless runs without a host process,
// for balance sweeps and regression checks. It consumes each engine's
// notification stream directly and records runs the same way the server
// does.
package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"harvestsim.ai/internal/persistence/recorder"
	"harvestsim.ai/internal/persistence/rundb"
	"harvestsim.ai/internal/sim/catalogs"
	"harvestsim.ai/internal/sim/engine"
	"harvestsim.ai/internal/sim/tuning"
)

var logger = logrus.New()

func main() {
	root := &cobra.Command{
		Use:           "run",
		Short:         "headless batch runner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBatchCmd(), newListCmd())
	if err := root.Execute(); err != nil {
		logger.WithError(err).Fatal("command failed")
	}
}

type batchOpts struct {
	configDir string
	dataDir   string
	seed      int64
	runs      int
	policies  []string
	speed     float64
	verbose   bool
}

func newBatchCmd() *cobra.Command {
	var o batchOpts
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "run N seeds per policy to completion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd.Context(), o)
		},
	}
	cmd.Flags().StringVar(&o.configDir, "configs", "./configs", "config directory")
	cmd.Flags().StringVar(&o.dataDir, "data", "./data", "runtime data directory")
	cmd.Flags().Int64Var(&o.seed, "seed", 1, "first seed; run i uses seed+i")
	cmd.Flags().IntVar(&o.runs, "runs", 1, "runs per policy")
	cmd.Flags().StringSliceVar(&o.policies, "policies", []string{"optimizer"}, "personas to sweep (optimizer, casual, weekend_warrior)")
	cmd.Flags().Float64Var(&o.speed, "speed", 1000, "speed multiple for every run")
	cmd.Flags().BoolVar(&o.verbose, "verbose", false, "log every completed day")
	return cmd
}

func runBatch(parent context.Context, o batchOpts) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tun, err := tuning.Load(filepath.Join(o.configDir, "tuning.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("load tuning: %w", err)
		}
		tun = tuning.Defaults()
	}
	cat, err := catalogs.Load(filepath.Join(o.configDir, "catalog.yaml"))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	_ = os.MkdirAll(o.dataDir, 0o755)
	db, err := rundb.Open(filepath.Join(o.dataDir, "runs.db"))
	if err != nil {
		return fmt.Errorf("open run db: %w", err)
	}
	defer db.Close()
	// The recorder logs through logrus so batch output stays one stream.
	rec := recorder.New(o.dataDir, db, nil, stdlog.New(logger.Writer(), "", 0))

	total, victories := 0, 0
	for _, policy := range o.policies {
		for i := 0; i < o.runs; i++ {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			seed := o.seed + int64(i)
			c, err := runOne(ctx, rec, tun, cat, policy, seed, o.speed, o.verbose)
			if err != nil {
				return fmt.Errorf("policy %s seed %d: %w", policy, seed, err)
			}
			total++
			if c.Reason == string(engine.ReasonVictory) {
				victories++
			}
			logger.WithFields(logrus.Fields{
				"policy": policy,
				"seed":   seed,
				"reason": c.Reason,
				"days":   c.Days,
				"level":  c.Level,
				"ticks":  c.Ticks,
			}).Info("run finished")
		}
	}
	logger.WithFields(logrus.Fields{"runs": total, "victories": victories}).Info("batch done")
	return nil
}

// runResult is the per-run digest the batch loop reports on.
type runResult struct {
	Reason string
	Ticks  uint64
	Days   int
	Level  int
}

func runOne(ctx context.Context, rec *recorder.Recorder, tun tuning.Tuning, cat *catalogs.Catalog, policy string, seed int64, speed float64, verbose bool) (runResult, error) {
	eng, err := engine.New(engine.Config{
		Seed:    seed,
		Policy:  policy,
		Speed:   speed,
		Tuning:  tun,
		Catalog: cat,
	})
	if err != nil {
		return runResult{}, err
	}

	runID := fmt.Sprintf("B%s-%d", policy, seed)
	rec.OnRun(runID, eng)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = eng.Run(runCtx) }()
	if err := eng.Start(speed); err != nil {
		return runResult{}, err
	}

	lastDay := -1
	for {
		select {
		case <-ctx.Done():
			_ = eng.Stop()
			return runResult{}, ctx.Err()
		case n, ok := <-eng.Notifications():
			if !ok {
				return runResult{}, fmt.Errorf("notification stream closed before completion")
			}
			switch n.Type {
			case engine.NoteTick:
				rec.OnTick(runID, n.Tick)
				if verbose && n.Tick.Day != lastDay {
					lastDay = n.Tick.Day
					logger.WithFields(logrus.Fields{
						"run":   runID,
						"day":   n.Tick.Day,
						"level": n.Tick.World.Progression.Level,
						"gold":  n.Tick.World.Resources.Gold.Current,
					}).Debug("day rollover")
				}
			case engine.NoteComplete:
				rec.OnComplete(runID, n.Complete)
				return runResult{
					Reason: string(n.Complete.Reason),
					Ticks:  n.Complete.Stats.Ticks,
					Days:   n.Complete.FinalState.Clock.Day(),
					Level:  n.Complete.FinalState.Progression.Level,
				}, nil
			case engine.NoteError:
				if n.Error.Fatal {
					logger.WithField("run", runID).Error(n.Error.Message)
				}
			}
		}
	}
}

func newListCmd() *cobra.Command {
	var dataDir string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list archived runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := rundb.Open(filepath.Join(dataDir, "runs.db"))
			if err != nil {
				return err
			}
			defer db.Close()
			rows, err := db.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, r := range rows {
				fmt.Printf("%-24s seed=%-8d policy=%-16s status=%-9s reason=%-10s ticks=%-8d days=%-4d level=%d\n",
					r.RunID, r.Seed, r.Policy, r.Status, r.Reason, r.Ticks, r.Days, r.Level)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data", "./data", "runtime data directory")
	cmd.Flags().IntVar(&limit, "limit", 50, "max rows")
	return cmd
}

func init() {
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if strings.EqualFold(os.Getenv("HS_LOG_LEVEL"), "debug") {
		logger.SetLevel(logrus.DebugLevel)
	}
}
