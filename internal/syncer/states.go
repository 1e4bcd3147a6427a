package syncer

// State identifies where a run is in its lifecycle. Transitions are linear;
// Failed is reachable from any working state.
type State string

const (
	StateIdle                 State = "idle"
	StateAuthenticatingSource State = "authenticating_source"
	StateFetchingHistory      State = "fetching_history"
	StateMatching             State = "matching"
	StateReconciling          State = "reconciling"
	StateApplying             State = "applying"
	StateDone                 State = "done"
	StateFailed               State = "failed"
)
