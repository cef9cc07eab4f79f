package orchestrator

// State is one phase of a query's lifecycle. Transitions are strictly
// forward; DONE and FAILED are terminal.
type State string

const (
	StateReceived     State = "RECEIVED"
	StateDecomposed   State = "DECOMPOSED"
	StateRetrieving   State = "RETRIEVING"
	StateEscalating   State = "ESCALATING"
	StateResearching  State = "RESEARCHING"
	StateSynthesizing State = "SYNTHESIZING"
	StateRendered     State = "RENDERED"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)
