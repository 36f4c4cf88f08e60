package fiber

// Flags mark which host mutation a fiber needs at the next commit. They are
// only meaningful between the end of a render pass and the commit that
// consumes them; a fiber reused across passes has them reset when work on it
// begins again.
type Flags uint16

const (
	FlagPlacement Flags = 1 << iota
	FlagUpdate
	FlagChildDeletion
	FlagPassive

	FlagNone Flags = 0

	flagsMutation = FlagPlacement | FlagUpdate | FlagChildDeletion
)

func (f Flags) String() string {
	if f == FlagNone {
		return "none"
	}
	s := ""
	if f&FlagPlacement != 0 {
		s += "|placement"
	}
	if f&FlagUpdate != 0 {
		s += "|update"
	}
	if f&FlagChildDeletion != 0 {
		s += "|child-deletion"
	}
	if f&FlagPassive != 0 {
		s += "|passive"
	}
	return s[1:]
}

// Tag is the closed set of fiber variants.
type Tag uint8

const (
	RootTag Tag = iota
	ComponentTag
	HostTag
	TextTag
)

func (t Tag) String() string {
	switch t {
	case RootTag:
		return "root"
	case ComponentTag:
		return "component"
	case HostTag:
		return "host"
	case TextTag:
		return "text"
	default:
		return "unknown"
	}
}

// Status reports what a unit of scheduling work accomplished.
type Status uint8

const (
	// StatusIdle means there was nothing to render.
	StatusIdle Status = iota
	// StatusYielded means rendering paused at a unit boundary and should be
	// resumed on the next scheduling turn.
	StatusYielded
	// StatusCommitted means a pending tree was completed and committed.
	StatusCommitted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusYielded:
		return "yielded"
	case StatusCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

type engineState uint8

const (
	engineIdle engineState = iota
	engineRendering
	engineCommitting
)
