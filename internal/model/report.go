package model

// WaypointResult is the validator verdict for one waypoint
type WaypointResult struct {
	Index     int    `yaml:"index" json:"index"`
	Number    int    `yaml:"number" json:"number"`
	Satisfied bool   `yaml:"satisfied" json:"satisfied"`
	Matching  int    `yaml:"matching" json:"matching"`
	Reason    string `yaml:"reason" json:"reason"`
}

// Report is the ordered per-waypoint validation result
type Report struct {
	Policy  string           `yaml:"policy" json:"policy"`
	Results []WaypointResult `yaml:"waypoints" json:"waypoints"`
}

// OK reports whether every waypoint is satisfied. An empty route is OK.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if !res.Satisfied {
			return false
		}
	}
	return true
}

// Failures returns the unsatisfied waypoints in route order.
func (r Report) Failures() []WaypointResult {
	var out []WaypointResult
	for _, res := range r.Results {
		if !res.Satisfied {
			out = append(out, res)
		}
	}
	return out
}

// Compatibility is the result of the structural compatibility check
type Compatibility struct {
	Waypoints int      `yaml:"waypoints" json:"waypoints"`
	Actions   int      `yaml:"actions" json:"actions"`
	Errors    []string `yaml:"errors" json:"errors"`
	Warnings  []string `yaml:"warnings" json:"warnings"`
}

// Valid is true when no errors were found.
func (c Compatibility) Valid() bool {
	return len(c.Errors) == 0
}
