package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/streamscale/streamscale/scale"
	"github.com/streamscale/streamscale/scale/checkpoint/memory"
	"github.com/streamscale/streamscale/scale/trace"
)

var (
	scenarioPath string // Path to the scenario YAML file
	traceOutPath string // Optional path for the decision trace YAML dump
)

// simulateCmd replays a scenario of partition tails and lease records
// through the estimator and decision engine, one poll at a time.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a scale scenario and print the vote for each poll",
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := LoadScenarioSpec(scenarioPath)
		if err != nil {
			logrus.Fatalf("unable to load scenario: %v", err)
		}

		target := spec.Target.scaleTarget()
		cfg := scale.MonitorConfig{
			WindowCapacity:      spec.WindowCapacity,
			ThroughputPerWorker: spec.ThroughputPerWorker,
		}
		if cfg.WindowCapacity <= 0 {
			cfg.WindowCapacity = scale.DefaultWindowCapacity
		}

		store := memory.NewStore()
		estimator := scale.NewBacklogEstimator(store, target)
		engine := scale.NewDecisionEngine(target, cfg)
		window := scale.NewSampleWindow(cfg.WindowCapacity)

		level := trace.LevelNone
		if traceOutPath != "" {
			level = trace.LevelDecisions
		}
		recorder := trace.NewRecorder(level)

		logrus.Infof("Replaying %d polls for '%s'", len(spec.Polls), target.Descriptor())

		ctx := cmd.Context()
		for i, poll := range spec.Polls {
			if err := poll.seedStore(store, target); err != nil {
				logrus.Fatalf("poll %d: %v", i, err)
			}

			sample, err := estimator.Estimate(ctx, poll.tails(), spec.TolerateFailures)
			if err != nil {
				logrus.Errorf("poll %d aborted: %v", i, err)
				continue
			}
			window.Add(sample)

			workerCount := spec.WorkerCount
			if poll.WorkerCount > 0 {
				workerCount = poll.WorkerCount
			}

			decision := engine.Decide(workerCount, window.Samples())
			logrus.Infof("poll %d: eventCount=%d partitionCount=%d workerCount=%d vote=%s rule=%s",
				i, sample.EventCount, sample.PartitionCount, workerCount, decision.Vote, decision.Rule)
			for _, msg := range decision.Trace {
				logrus.Debug(msg)
			}

			recorder.Record(trace.DecisionRecord{
				Timestamp:      sample.Timestamp,
				WorkerCount:    workerCount,
				EventCount:     sample.EventCount,
				PartitionCount: sample.PartitionCount,
				Vote:           decision.Vote.String(),
				Rule:           string(decision.Rule),
				Messages:       decision.Trace,
			})
		}

		if recorder.Enabled() {
			f, err := os.Create(traceOutPath)
			if err != nil {
				logrus.Fatalf("unable to create trace file: %v", err)
			}
			defer f.Close()
			if err := recorder.WriteYAML(f); err != nil {
				logrus.Fatalf("unable to write trace file: %v", err)
			}
			logrus.Infof("Decision trace written to %s", traceOutPath)
		}
	},
}

func init() {
	simulateCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to scenario YAML file (required)")
	simulateCmd.Flags().StringVar(&traceOutPath, "trace-out", "", "Write a decision trace YAML to this path")
	_ = simulateCmd.MarkFlagRequired("scenario")

	rootCmd.AddCommand(simulateCmd)
}
