package vector

// State is the lifecycle state of a Store.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateRegenerating
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateRegenerating:
		return "regenerating"
	default:
		return "unknown"
	}
}
