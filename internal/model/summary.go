package model

// Summary describes a mission for display after processing or inspection
type Summary struct {
	Waypoints        int     `yaml:"waypoints" json:"waypoints"`
	ActionGroups     int     `yaml:"actionGroups" json:"actionGroups"`
	RouteLengthM     float64 `yaml:"routeLengthMeters" json:"routeLengthMeters"`
	SpeedMS          float64 `yaml:"speedMetersPerSecond" json:"speedMetersPerSecond"`
	HoverSeconds     int     `yaml:"hoverSeconds" json:"hoverSeconds"`
	EstimatedSeconds float64 `yaml:"estimatedSeconds" json:"estimatedSeconds"`
}

// Position is a waypoint location in WGS84 degrees with the height as
// written in the mission (metres, reference depends on the mission's
// height mode).
type Position struct {
	Lon    float64 `yaml:"lon" json:"lon"`
	Lat    float64 `yaml:"lat" json:"lat"`
	Height float64 `yaml:"height" json:"height"`
}
