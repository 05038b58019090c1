package pipeline

// State is a step of a deployment run.
type State int

// States in the order a successful run visits them. RolledBack is the
// terminal failure state after the commit point.
const (
	Init State = iota
	SystemValidated
	ConfigCaptured
	ConfigValidated
	ConfigGenerated
	ConfigWritten
	SiteEnabled
	ConfigTested
	Reloaded
	Certified
	CertSkipped
	Complete
	RolledBack
)

var stateNames = map[State]string{
	Init:            "Init",
	SystemValidated: "SystemValidated",
	ConfigCaptured:  "ConfigCaptured",
	ConfigValidated: "ConfigValidated",
	ConfigGenerated: "ConfigGenerated",
	ConfigWritten:   "ConfigWritten",
	SiteEnabled:     "SiteEnabled",
	ConfigTested:    "ConfigTested",
	Reloaded:        "Reloaded",
	Certified:       "Certified",
	CertSkipped:     "CertSkipped",
	Complete:        "Complete",
	RolledBack:      "RolledBack",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "Unknown"
}

// MarshalText renders the state name in JSON reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Committed reports whether s lies inside the commit stage, where a
// failure must be compensated by rollback.
func (s State) Committed() bool {
	return s >= ConfigWritten && s <= Reloaded
}
