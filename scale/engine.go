// Implements the DecisionEngine, a multi-rule heuristic over a sliding
// window of backlog samples. Instantaneous capacity mismatches take
// precedence over trend analysis; trend rules require full-window agreement
// so one noisy sample cannot flip the vote.

package scale

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Rule identifies which decision rule produced a vote.
type Rule string

// enumeration of Rule, in evaluation order
const (
	RuleNoSamples     Rule = "no-samples"     // empty window, cannot decide
	RuleExcessWorkers Rule = "excess-workers" // more workers than partitions
	RuleHighBacklog   Rule = "high-backlog"   // backlog exceeds assumed capacity
	RuleIdle          Rule = "idle"           // zero backlog across the whole window
	RuleIncreasing    Rule = "increasing"     // backlog strictly increasing across the window
	RuleDecreasing    Rule = "decreasing"     // backlog strictly decreasing across the window
	RuleSteady        Rule = "steady"         // no rule fired, abstain
)

// Decision is the engine's output: a vote plus the diagnostic trace
// explaining which rule fired. The trace wording is a stable operational
// contract consumed by operators and tests.
type Decision struct {
	Vote  Vote
	Rule  Rule
	Trace []string
}

// DecisionEngine votes on worker count changes for one target. It is pure:
// Decide never mutates its inputs, never faults, and is safe to call from
// any goroutine.
type DecisionEngine struct {
	target Target
	cfg    MonitorConfig
}

// NewDecisionEngine creates an engine for the target. Zero-valued config
// fields fall back to the reference defaults.
func NewDecisionEngine(target Target, cfg MonitorConfig) *DecisionEngine {
	return &DecisionEngine{target: target, cfg: cfg.normalized()}
}

// Decide evaluates the rules in order against the current worker count and
// the caller-owned window of samples, oldest to newest. First match wins.
//
// Capacity rules (excess workers, high backlog) look only at the newest
// sample: they are actionable regardless of history. Idle and trend rules
// require a full window; a shorter window conservatively falls through to
// the steady outcome. Ambiguous states abstain with VoteNone rather than
// guess, relying on the host's stabilization period to avoid oscillation.
func (e *DecisionEngine) Decide(workerCount int, window []MetricSample) Decision {
	entity := e.target.EntityName

	if len(window) == 0 {
		return Decision{Vote: VoteNone, Rule: RuleNoSamples, Trace: []string{
			fmt.Sprintf("Insufficient data to make a scale decision for '%s'.", entity),
		}}
	}

	newest := window[len(window)-1]

	// Each partition is served by at most one worker at a time, so excess
	// workers are structurally idle.
	if workerCount > newest.PartitionCount {
		return Decision{Vote: VoteScaleIn, Rule: RuleExcessWorkers, Trace: []string{
			fmt.Sprintf("WorkerCount (%d) > PartitionCount (%d).", workerCount, newest.PartitionCount),
			fmt.Sprintf("Number of instances (%d) is too high relative to the number of partitions (%d) for '%s'.",
				workerCount, newest.PartitionCount, entity),
		}}
	}

	if newest.EventCount > int64(workerCount)*e.cfg.ThroughputPerWorker {
		return Decision{Vote: VoteScaleOut, Rule: RuleHighBacklog, Trace: []string{
			fmt.Sprintf("EventCount (%d) > WorkerCount (%d) * %s.",
				newest.EventCount, workerCount, humanize.Comma(e.cfg.ThroughputPerWorker)),
			fmt.Sprintf("Backlog length (%d) for '%s' is too high relative to the number of instances (%d).",
				newest.EventCount, entity, workerCount),
		}}
	}

	if len(window) >= e.cfg.WindowCapacity {
		if allIdle(window) {
			return Decision{Vote: VoteScaleIn, Rule: RuleIdle, Trace: []string{
				fmt.Sprintf("'%s' is idle.", entity),
			}}
		}
		if strictlyIncreasing(window) {
			return Decision{Vote: VoteScaleOut, Rule: RuleIncreasing, Trace: []string{
				fmt.Sprintf("Event count is increasing for '%s'.", entity),
			}}
		}
		if strictlyDecreasing(window) {
			return Decision{Vote: VoteScaleIn, Rule: RuleDecreasing, Trace: []string{
				fmt.Sprintf("Event count is decreasing for '%s'.", entity),
			}}
		}
	}

	return Decision{Vote: VoteNone, Rule: RuleSteady, Trace: []string{
		fmt.Sprintf("'%s' is steady.", entity),
	}}
}

func allIdle(window []MetricSample) bool {
	for _, s := range window {
		if s.EventCount != 0 {
			return false
		}
	}
	return true
}

func strictlyIncreasing(window []MetricSample) bool {
	for i := 1; i < len(window); i++ {
		if window[i].EventCount <= window[i-1].EventCount {
			return false
		}
	}
	return true
}

func strictlyDecreasing(window []MetricSample) bool {
	for i := 1; i < len(window); i++ {
		if window[i].EventCount >= window[i-1].EventCount {
			return false
		}
	}
	return true
}
