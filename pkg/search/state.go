package search

// Phase is the position of an orchestrator in its search cycle.
type Phase int

const (
	// PhaseIdle means there is no query, or it is too short to search.
	PhaseIdle Phase = iota
	// PhaseDebouncing means a timer is pending and no request was sent yet.
	PhaseDebouncing
	// PhaseInFlight means the executor is running.
	PhaseInFlight
	// PhaseSettled means the results of the current query are applied.
	PhaseSettled
	// PhaseErrored means the current query failed; it stays until new input.
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDebouncing:
		return "debouncing"
	case PhaseInFlight:
		return "in-flight"
	case PhaseSettled:
		return "settled"
	case PhaseErrored:
		return "errored"
	}
	return "unknown"
}

// Busy reports whether a search is pending or running.
func (p Phase) Busy() bool {
	return p == PhaseDebouncing || p == PhaseInFlight
}

// State is the read model a view renders.
type State[T any] struct {
	// SearchTerm is the text exactly as typed.
	SearchTerm string
	// Query is the normalized form of SearchTerm.
	Query       string
	Results     []T
	IsSearching bool
	SearchError error
	Phase       Phase
	// FromCache is set when Results were served by the cache.
	FromCache bool
	// Version increases with every change, so consumers that receive
	// snapshots out of order can drop older ones.
	Version uint64
}
