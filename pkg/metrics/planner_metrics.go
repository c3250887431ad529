// Pre-registered metrics for the planning engine.
package metrics

var (
	// MovesPlanned counts moves appended to planning sessions, by kind.
	MovesPlanned = NewCounter(
		"velplan_moves_planned_total",
		"Moves appended to planning sessions")

	// MovesFinalized counts moves whose speed profile has been resolved.
	MovesFinalized = NewCounter(
		"velplan_moves_finalized_total",
		"Moves finalized by lookahead flushes")

	// LookaheadFlushes counts flushes of the pending window, by trigger.
	LookaheadFlushes = NewCounter(
		"velplan_lookahead_flushes_total",
		"Lookahead flushes of the pending window")

	// PlanIterations tracks how many backward/forward iterations a flush
	// needed to converge.
	PlanIterations = NewHistogram(
		"velplan_plan_iterations",
		"Lookahead iterations per flush",
		LinearBuckets(1, 1, 8))

	// PendingWindow tracks the size of the pending window after each append.
	PendingWindow = NewGauge(
		"velplan_pending_window_moves",
		"Moves currently awaiting finalization")
)

func init() {
	defaultRegistry.MustRegister(MovesPlanned)
	defaultRegistry.MustRegister(MovesFinalized)
	defaultRegistry.MustRegister(LookaheadFlushes)
	defaultRegistry.MustRegister(PlanIterations)
	defaultRegistry.MustRegister(PendingWindow)
}
