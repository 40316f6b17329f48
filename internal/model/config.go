package model

// Config file identity.
const (
	ConfigAPIVersion = "wpmlkit.sourceplane.io/v1"
	ConfigKind       = "ActionPolicy"
	BatchKind        = "MissionBatch"
)

// Defaults applied by normalization.
const (
	DefaultMissionEntry   = "wpmz/waylines.wpml"
	DefaultOutputFilename = "5336EE45-2941-4996-B7F1-22BAA25F2639.kmz"
	DefaultHoverSeconds   = 2
)

// Config is the k8s-style policy document read from YAML
type Config struct {
	APIVersion string     `yaml:"apiVersion" json:"apiVersion"`
	Kind       string     `yaml:"kind" json:"kind"`
	Metadata   Metadata   `yaml:"metadata" json:"metadata"`
	Spec       ConfigSpec `yaml:"spec" json:"spec"`
}

// Metadata holds standard object metadata
type Metadata struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// ConfigSpec is the configuration surface consumed by the engine
type ConfigSpec struct {
	Policy       string       `yaml:"policy" json:"policy"`
	HoverSeconds int          `yaml:"hoverSeconds" json:"hoverSeconds"`
	MissionEntry string       `yaml:"missionEntry" json:"missionEntry"`
	Output       OutputConfig `yaml:"output" json:"output"`
}

// OutputConfig controls where processed archives are written
type OutputConfig struct {
	Filename  string `yaml:"filename" json:"filename"`
	Dir       string `yaml:"dir" json:"dir"`
	Overwrite bool   `yaml:"overwrite" json:"overwrite"`
}

// Settings is the normalized, validated form of a Config
type Settings struct {
	Name           string
	Policy         Policy
	MissionEntry   string
	OutputFilename string
	OutputDir      string
	Overwrite      bool
}

// Batch lists several missions to process with one policy
type Batch struct {
	APIVersion string    `yaml:"apiVersion" json:"apiVersion"`
	Kind       string    `yaml:"kind" json:"kind"`
	Metadata   Metadata  `yaml:"metadata" json:"metadata"`
	Spec       BatchSpec `yaml:"spec" json:"spec"`
}

// BatchSpec holds the jobs of a batch
type BatchSpec struct {
	Jobs []Job `yaml:"jobs" json:"jobs"`
}
