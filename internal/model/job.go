package model

// Job is one mission archive to process in a batch
type Job struct {
	ID     string `yaml:"id" json:"id"`
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
}
