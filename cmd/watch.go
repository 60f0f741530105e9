package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/streamscale/streamscale/scale"
	"github.com/streamscale/streamscale/scale/checkpoint/sqlite"
)

var watchConfigPath string // Path to the watch config file

// watchCmd runs the poll loop against a live checkpoint store: estimate
// backlog, append to the window, decide, and log the vote for the host's
// autoscaler to consume. It never scales workers itself.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll a checkpoint store and emit scale votes until interrupted",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := LoadWatchConfig(watchConfigPath)
		if err != nil {
			logrus.Fatalf("unable to load config: %v", err)
		}

		store, err := sqlite.NewStore(cfg.Store.Path)
		if err != nil {
			logrus.Fatalf("unable to open checkpoint store: %v", err)
		}
		defer store.Close()

		target := scale.Target{
			Namespace:     cfg.Target.Namespace,
			EntityName:    cfg.Target.Entity,
			ConsumerGroup: cfg.Target.ConsumerGroup,
			FunctionID:    cfg.Target.FunctionID,
		}
		monitorCfg := scale.MonitorConfig{
			WindowCapacity:      cfg.Scaling.WindowCapacity,
			ThroughputPerWorker: cfg.Scaling.ThroughputPerWorker,
			FetchConcurrency:    cfg.Scaling.FetchConcurrency,
		}

		estimator := scale.NewBacklogEstimator(store, target,
			scale.WithFetchConcurrency(cfg.Scaling.FetchConcurrency))
		engine := scale.NewDecisionEngine(target, monitorCfg)
		window := scale.NewSampleWindow(monitorCfg.WindowCapacity)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logrus.Infof("Watching '%s' every %s", target.Descriptor(), cfg.PollInterval())

		ticker := time.NewTicker(cfg.PollInterval())
		defer ticker.Stop()

		for {
			runPoll(ctx, cfg, estimator, engine, window)

			select {
			case <-ctx.Done():
				logrus.Info("Watch stopped.")
				return
			case <-ticker.C:
			}
		}
	},
}

// runPoll executes one poll: load live inputs, estimate, decide, log.
func runPoll(ctx context.Context, cfg *WatchConfig, estimator *scale.BacklogEstimator, engine *scale.DecisionEngine, window *scale.SampleWindow) {
	inputs, err := LoadPollInputs(cfg.Polling.InputsFile)
	if err != nil {
		logrus.Errorf("skipping poll: %v", err)
		return
	}

	pollCtx, cancel := context.WithTimeout(ctx, cfg.PollTimeout())
	defer cancel()

	sample, err := estimator.Estimate(pollCtx, inputs.tails(), cfg.Polling.TolerateFailures)
	if err != nil {
		logrus.Errorf("poll aborted: %v", err)
		return
	}
	window.Add(sample)

	decision := engine.Decide(inputs.WorkerCount, window.Samples())
	logrus.Infof("eventCount=%d partitionCount=%d workerCount=%d vote=%s rule=%s",
		sample.EventCount, sample.PartitionCount, inputs.WorkerCount, decision.Vote, decision.Rule)
	for _, msg := range decision.Trace {
		logrus.Info(msg)
	}
}

func init() {
	watchCmd.Flags().StringVar(&watchConfigPath, "config", "", "Path to config file (default: ./streamscale.yaml)")

	rootCmd.AddCommand(watchCmd)
}
