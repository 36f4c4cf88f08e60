package fiber

// Lanes is a priority bitmask attached to scheduled updates. Lower bits are
// more urgent.
type Lanes uint8

const (
	// SyncLane is for discrete user input where latency beats smoothness.
	SyncLane Lanes = 1 << iota
	// InputLane is for continuous input (drag, scroll).
	InputLane
	// DefaultLane is for ordinary updates.
	DefaultLane
	// IdleLane is for background work.
	IdleLane

	NoLanes Lanes = 0
)

func highestPriorityLane(lanes Lanes) Lanes {
	return lanes & -lanes
}

func (l Lanes) String() string {
	switch highestPriorityLane(l) {
	case SyncLane:
		return "sync"
	case InputLane:
		return "input"
	case DefaultLane:
		return "default"
	case IdleLane:
		return "idle"
	default:
		return "none"
	}
}
