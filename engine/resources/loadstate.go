package resources

// LoadState tracks where a file-backed resource sits in the async loading
// pipeline (spec.md §3 Lifecycles, §4.5 state machine).
type LoadState int

const (
	LoadStateUnloaded LoadState = iota
	LoadStateLoading
	LoadStateLoaded
	LoadStateFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadStateUnloaded:
		return "Unloaded"
	case LoadStateLoading:
		return "Loading"
	case LoadStateLoaded:
		return "Loaded"
	case LoadStateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
